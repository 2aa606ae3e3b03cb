package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
)

func TestNewRelationship(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		rel, err := models.NewRelationship("r1", "a", "b", models.DependsOnRelationship, "  note  ", time.Time{})
		assert.NoError(t, err)
		assert.Equal(t, "note", rel.Description)
		assert.False(t, rel.CreatedAt.IsZero())
		assert.Equal(t, rel.CreatedAt, rel.UpdatedAt)
	})

	t.Run("SelfLoopRejectedForEveryType", func(t *testing.T) {
		for _, typ := range models.RelationshipTypes {
			_, err := models.NewRelationship("r1", "a", "a", typ, "", time.Time{})
			assert.Error(t, err, "type %s", typ)
			assert.True(t, models.IsValidation(err))
		}
	})

	t.Run("BlankIDs", func(t *testing.T) {
		_, err := models.NewRelationship("r1", "  ", "b", models.BlocksRelationship, "", time.Time{})
		assert.Error(t, err)
		_, err = models.NewRelationship("", "a", "b", models.BlocksRelationship, "", time.Time{})
		assert.Error(t, err)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := models.NewRelationship("r1", "a", "b", "follows", "", time.Time{})
		assert.Error(t, err)
		assert.True(t, models.IsValidation(err))
	})
}

func TestChangeType(t *testing.T) {
	rel, err := models.NewRelationship("r1", "a", "b", models.RelatedToRelationship, "", time.Time{})
	assert.NoError(t, err)

	updatedAt := rel.UpdatedAt
	assert.NoError(t, rel.ChangeType(models.RelatedToRelationship))
	assert.Equal(t, updatedAt, rel.UpdatedAt, "no-op must not bump updatedAt")

	assert.NoError(t, rel.ChangeType(models.BlocksRelationship))
	assert.Equal(t, models.BlocksRelationship, rel.Type)

	assert.Error(t, rel.ChangeType("unknown"))
	assert.Equal(t, models.BlocksRelationship, rel.Type)
}

func TestAttachDescription(t *testing.T) {
	rel, err := models.NewRelationship("r1", "a", "b", models.RelatedToRelationship, "initial", time.Time{})
	assert.NoError(t, err)

	rel.AttachDescription("  updated  ")
	assert.Equal(t, "updated", rel.Description)

	rel.AttachDescription("")
	assert.Equal(t, "", rel.Description)
}

func TestDirectionalAcyclic(t *testing.T) {
	assert.True(t, models.DependsOnRelationship.DirectionalAcyclic())
	assert.True(t, models.BlocksRelationship.DirectionalAcyclic())
	assert.False(t, models.RelatedToRelationship.DirectionalAcyclic())
	assert.False(t, models.ParentOfRelationship.DirectionalAcyclic())
}
