package dbcontext

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/roach88/relmap/internal/relation"
	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/store"
)

// SaveResult reports one successful SaveChanges call.
type SaveResult struct {
	// Token identifies the call in logs.
	Token string `json:"token"`

	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`

	// Collections lists the per-collection counts, in discovery order.
	Collections []Pending `json:"collections,omitempty"`
}

// SaveChanges persists the pending changes of every collection in one
// transaction. Validation failures (*ValidationError, or a relation error
// for the live graph) are reported before any connection is opened. A
// store failure rolls back the whole transaction and is returned as a
// *StoreError; the baselines are then left untouched so the same changes
// stay pending.
//
// On success every baseline is reset to the live contents and navigations
// are rewired, so newly added records see their related records.
func (c *Context) SaveChanges(ctx context.Context) (*SaveResult, error) {
	res := &SaveResult{Token: c.tokens.Generate()}
	log := c.logger.With("save", res.Token)

	if err := c.validateAll(); err != nil {
		log.Warn("save rejected", "error", err)
		return nil, err
	}
	if err := relation.Resolve(c.Collections()); err != nil {
		log.Warn("save rejected", "error", err)
		return nil, err
	}

	res.Collections = c.Pending()
	if len(res.Collections) == 0 {
		log.Debug("nothing to save")
		return res, nil
	}

	if err := c.persist(ctx, log); err != nil {
		return nil, err
	}

	for _, e := range c.entries {
		e.coll.Accept()
	}
	for _, p := range res.Collections {
		res.Inserted += p.Added
		res.Deleted += p.Removed
	}

	log.Info("changes saved", "inserted", res.Inserted, "deleted", res.Deleted)
	return res, nil
}

// persist writes every collection's changes in one transaction.
func (c *Context) persist(ctx context.Context, log *slog.Logger) error {
	conn, err := c.gw.Open(ctx)
	if err != nil {
		return storeErr("open", "", "", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Error("error closing connection", "error", cerr)
		}
	}()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return storeErr("begin", "", "", err)
	}

	for _, e := range c.entries {
		if err := writeEntry(ctx, tx, e); err != nil {
			log.Warn("rolling back", "collection", e.name, "error", err)
			if rerr := tx.Rollback(); rerr != nil {
				log.Error("rollback failed", "error", rerr)
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit", "", "", err)
	}
	return nil
}

// writeEntry inserts the Added records of e, then deletes its Removed
// records by primary key.
func writeEntry(ctx context.Context, tx store.Tx, e *entry) error {
	added, removed := e.coll.Pending()
	table := e.model.Table

	if len(added) > 0 {
		if err := tx.Insert(ctx, table, e.columns, rows(added, e.mapped)); err != nil {
			return storeErr("insert", e.name, table, err)
		}
	}

	if len(removed) > 0 {
		if err := e.model.RequireKey(); err != nil {
			return err
		}
		if err := tx.Delete(ctx, table, e.keyColumns, rows(removed, e.model.Key)); err != nil {
			return storeErr("delete", e.name, table, err)
		}
	}
	return nil
}

func rows(records []reflect.Value, fields []*schema.Field) [][]any {
	out := make([][]any, len(records))
	for i, rec := range records {
		out[i] = schema.Values(rec, fields)
	}
	return out
}
