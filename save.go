package tidal

import (
	"context"

	"github.com/syssam/tidal/entity"
)

// Save inserts the model when its primary key is not set, and updates
// the located row otherwise. After an insert the generated key is
// written back into the model, so saving the same model again becomes
// an update.
func Save(ctx context.Context, s Session, am entity.ActiveModel) error {
	if entity.HasPrimaryKey(am) {
		_, err := Update(am).Exec(ctx, s)
		return err
	}
	res, err := Insert(am).Exec(ctx, s)
	if err != nil {
		return err
	}
	if ai, ok := entity.AutoIncrementColumn(am.Entity()); ok && res.LastInsertID != 0 {
		// Record the key as already stored so a follow-up Save does not
		// try to write it.
		if r, ok := am.(*entity.Record); ok {
			r.SetUnchanged(ai.Name, res.LastInsertID)
		} else {
			am.SetValue(ai.Name, res.LastInsertID)
		}
	}
	return nil
}
