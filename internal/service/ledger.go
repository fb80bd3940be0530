package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationRecord is the outcome of a successful Add.
type RelationRecord struct {
	Kind      models.RelationKind
	ActorID   uuid.UUID
	TargetID  uuid.UUID
	CreatedAt time.Time
}

// relationBinding tells the ledger where a relation kind lives.
type relationBinding struct {
	// target is the model the relation points at; it must exist.
	target    interface{}
	allowSelf bool
	model     func() interface{}
	where     func(db *gorm.DB, actor, target uuid.UUID) *gorm.DB
	row       func(actor, target uuid.UUID) (row interface{}, createdAt func() time.Time)
}

func (b relationBinding) scope(db *gorm.DB, actor, target uuid.UUID) *gorm.DB {
	return b.where(db.Model(b.model()), actor, target)
}

func recipeBinding(kind models.RelationKind) relationBinding {
	return relationBinding{
		target:    &models.Recipe{},
		allowSelf: true,
		model:     func() interface{} { return &models.RecipeRelation{} },
		where: func(db *gorm.DB, actor, target uuid.UUID) *gorm.DB {
			return db.Where("kind = ? AND user_id = ? AND recipe_id = ?", kind, actor, target)
		},
		row: func(actor, target uuid.UUID) (interface{}, func() time.Time) {
			r := &models.RecipeRelation{Kind: kind, UserID: actor, RecipeID: target}
			return r, func() time.Time { return r.CreatedAt }
		},
	}
}

var bindings = map[models.RelationKind]relationBinding{
	models.KindFavorite: recipeBinding(models.KindFavorite),
	models.KindPurchase: recipeBinding(models.KindPurchase),
	models.KindSubscription: {
		target:    &models.User{},
		allowSelf: false,
		model:     func() interface{} { return &models.Subscription{} },
		where: func(db *gorm.DB, actor, target uuid.UUID) *gorm.DB {
			return db.Where("subscriber_id = ? AND subscribed_to_id = ?", actor, target)
		},
		row: func(actor, target uuid.UUID) (interface{}, func() time.Time) {
			s := &models.Subscription{SubscriberID: actor, SubscribedToID: target}
			return s, func() time.Time { return s.CreatedAt }
		},
	},
}

// PreferenceLedger manages toggle-style relations between a user and a
// recipe (favorite, purchase) or another user (subscription). An actor of
// uuid.Nil is anonymous.
type PreferenceLedger struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewPreferenceLedger(db *gorm.DB) *PreferenceLedger {
	return &PreferenceLedger{
		db:  db,
		log: logging.With().Str("component", "ledger").Logger(),
	}
}

func lookupBinding(kind models.RelationKind) (relationBinding, error) {
	b, ok := bindings[kind]
	if !kind.Valid() || !ok {
		return relationBinding{}, invalid("kind", "unknown relation kind %q", kind)
	}
	return b, nil
}

// Add records a new relation. A second Add for the same triple fails with
// ErrDuplicateRelation; the unique index decides concurrent adds.
func (l *PreferenceLedger) Add(ctx context.Context, kind models.RelationKind, actorID, targetID uuid.UUID) (*RelationRecord, error) {
	if actorID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	b, err := lookupBinding(kind)
	if err != nil {
		return nil, err
	}
	if !b.allowSelf && actorID == targetID {
		return nil, ErrSelfReference
	}

	var created time.Time
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, b, targetID); err != nil {
			return err
		}

		var count int64
		if err := b.scope(tx, actorID, targetID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateRelation
		}

		at, err := insertRelation(tx, b, actorID, targetID)
		created = at
		return err
	})
	if err != nil {
		return nil, err
	}

	l.log.Debug().Str("kind", string(kind)).Str("actor", actorID.String()).Str("target", targetID.String()).Msg("relation added")
	return &RelationRecord{Kind: kind, ActorID: actorID, TargetID: targetID, CreatedAt: created}, nil
}

// insertRelation writes the row and translates constraint failures. A racing
// add that passed the count check lands here as ErrDuplicatedKey.
func insertRelation(tx *gorm.DB, b relationBinding, actorID, targetID uuid.UUID) (time.Time, error) {
	row, createdAt := b.row(actorID, targetID)
	if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return time.Time{}, ErrDuplicateRelation
		case errors.Is(err, gorm.ErrCheckConstraintViolated):
			return time.Time{}, ErrSelfReference
		}
		return time.Time{}, storageError(err)
	}
	return createdAt(), nil
}

// Remove deletes a relation and reports how many rows went away (0 or 1).
// A target that never existed is ErrNotFound, not 0.
func (l *PreferenceLedger) Remove(ctx context.Context, kind models.RelationKind, actorID, targetID uuid.UUID) (int64, error) {
	if actorID == uuid.Nil {
		return 0, ErrUnauthenticated
	}
	b, err := lookupBinding(kind)
	if err != nil {
		return 0, err
	}

	db := l.db.WithContext(ctx)
	if err := targetExists(db, b, targetID); err != nil {
		return 0, err
	}

	res := b.where(db, actorID, targetID).Delete(b.model())
	if res.Error != nil {
		return 0, storageError(res.Error)
	}

	l.log.Debug().Str("kind", string(kind)).Str("actor", actorID.String()).Int64("removed", res.RowsAffected).Msg("relation removed")
	return res.RowsAffected, nil
}

// Exists reports whether the relation is present. Anonymous actors never
// have relations, and no query is issued for them.
func (l *PreferenceLedger) Exists(ctx context.Context, kind models.RelationKind, actorID, targetID uuid.UUID) (bool, error) {
	if actorID == uuid.Nil {
		return false, nil
	}
	b, err := lookupBinding(kind)
	if err != nil {
		return false, err
	}

	var count int64
	if err := b.scope(l.db.WithContext(ctx), actorID, targetID).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func targetExists(db *gorm.DB, b relationBinding, targetID uuid.UUID) error {
	var count int64
	if err := db.Model(b.target).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
