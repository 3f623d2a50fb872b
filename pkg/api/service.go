package api

import (
	"github.com/oarlock/ferry/internal/core"
	"github.com/oarlock/ferry/pkg/backend"
	"github.com/oarlock/ferry/pkg/database"
	"github.com/oarlock/ferry/pkg/structs"
)

func NewAPI(db database.Database, be backend.Backend, opts *structs.Options) (API, error) {
	return core.NewService(db, be, opts)
}
