package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RelationKind tags a preference relation between a user and a target.
type RelationKind string

const (
	KindFavorite     RelationKind = "favorite"
	KindPurchase     RelationKind = "purchase"
	KindSubscription RelationKind = "subscription"
)

func (k RelationKind) Valid() bool {
	switch k {
	case KindFavorite, KindPurchase, KindSubscription:
		return true
	}
	return false
}

// TargetsRecipe reports whether the relation points at a recipe rather than a user.
func (k RelationKind) TargetsRecipe() bool {
	return k == KindFavorite || k == KindPurchase
}

// RecipeRelation stores both favorites and purchases. The unique index over
// (kind, user, recipe) is what settles concurrent adds.
type RecipeRelation struct {
	ID        uuid.UUID    `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Kind      RelationKind `gorm:"size:16;not null;uniqueIndex:idx_recipe_relation" json:"kind"`
	UserID    uuid.UUID    `gorm:"type:varchar(36);not null;uniqueIndex:idx_recipe_relation" json:"user_id"`
	RecipeID  uuid.UUID    `gorm:"type:varchar(36);not null;uniqueIndex:idx_recipe_relation;index" json:"recipe_id"`
	User      *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe    *Recipe      `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RecipeRelation) TableName() string {
	return "recipe_relations"
}

func (r *RecipeRelation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Subscription struct {
	ID             uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	SubscriberID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_subscription;check:chk_subscription_not_self,subscriber_id <> subscribed_to_id" json:"subscriber_id"`
	SubscribedToID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_subscription;index" json:"subscribed_to_id"`
	Subscriber     *User     `gorm:"foreignKey:SubscriberID;constraint:OnDelete:CASCADE" json:"-"`
	SubscribedTo   *User     `gorm:"foreignKey:SubscribedToID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeTag{},
		&RecipeRelation{},
		&Subscription{},
	}
}
