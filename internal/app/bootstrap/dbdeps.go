// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	deploymentsstore "github.com/dalemusser/nftjr/internal/app/store/deployments"
	"github.com/dalemusser/nftjr/internal/app/system/addressbook"
	"github.com/dalemusser/nftjr/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Book and Refresh are pointers so that Startup, BuildHandler and Shutdown
// all see the same instances.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Ledger  *deploymentsstore.Store
	Book    *addressbook.Book
	Refresh *workers.AddressBookRefresh // nil when refresh is disabled
}
