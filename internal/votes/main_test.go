package votes

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"

	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/testutil"
)

var testDSN string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	dsn, stop, err := testutil.StartPostgres(context.Background())
	if err != nil {
		log.Printf("postgres unavailable, store tests will be skipped: %v", err)
	} else {
		testDSN = dsn
	}

	code := m.Run()
	if stop != nil {
		stop()
	}
	os.Exit(code)
}

// newStore returns a clean database and a service bound to it.
func newStore(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	if testDSN == "" {
		t.Skip("postgres container not available")
	}
	db := testutil.NewDB(t, testDSN)
	return db, NewService(db, zaptest.NewLogger(t))
}
