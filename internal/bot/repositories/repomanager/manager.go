package repomanager

import (
	"context"
	"database/sql"

	"github.com/sarhadsec/scanbot/internal/bot/repositories/scans"
	"github.com/sarhadsec/scanbot/internal/bot/repositories/users"
	"github.com/sarhadsec/scanbot/internal/dbx"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Scans(db dbx.DBTX) scans.Repository
}
