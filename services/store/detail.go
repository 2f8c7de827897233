package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sahilchouksey/gaokao-ingest/model"
)

// ErrVersionConflict is returned when an institution detail changed between
// read and update.
var ErrVersionConflict = errors.New("institution detail was modified concurrently")

// DetailStore persists institution profiles together with their child
// collections.
type DetailStore struct {
	db *gorm.DB
}

func NewDetailStore(db *gorm.DB) *DetailStore {
	return &DetailStore{db: db}
}

// Upsert writes detail and replaces every child collection for its school_id
// in a single transaction. An existing row is overwritten in full and its
// version incremented; a new row starts at version 1. It reports whether the
// row was created.
func (s *DetailStore) Upsert(ctx context.Context, detail model.InstitutionDetail, children model.DetailChildren) (bool, error) {
	if detail.SchoolID == "" {
		return false, errors.New("institution detail has no school_id")
	}

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.InstitutionDetail
		err := tx.Select("id", "version", "created_at").
			Where("school_id = ?", detail.SchoolID).
			Take(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			detail.ID = 0
			detail.Version = 1
			if err := tx.Omit(clause.Associations).Create(&detail).Error; err != nil {
				return fmt.Errorf("create detail %s: %w", detail.SchoolID, err)
			}

		case err != nil:
			return fmt.Errorf("load detail %s: %w", detail.SchoolID, err)

		default:
			detail.ID = existing.ID
			detail.CreatedAt = existing.CreatedAt
			detail.Version = existing.Version + 1

			result := tx.Model(&model.InstitutionDetail{}).
				Where("id = ? AND version = ?", existing.ID, existing.Version).
				Select("*").
				Omit("id", "created_at", clause.Associations).
				Updates(&detail)
			if result.Error != nil {
				return fmt.Errorf("update detail %s: %w", detail.SchoolID, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("detail %s at version %d: %w", detail.SchoolID, existing.Version, ErrVersionConflict)
			}

			if err := deleteChildren(tx, detail.SchoolID); err != nil {
				return err
			}
		}

		return insertChildren(tx, detail.SchoolID, children)
	})
	if err != nil {
		return false, err
	}

	log.Debugf("[STORE] institution detail %s written (created=%t, children=%d)", detail.SchoolID, created, children.Len())
	return created, nil
}

// Children loads the child collections stored for schoolID.
func (s *DetailStore) Children(ctx context.Context, schoolID string) (model.DetailChildren, error) {
	var out model.DetailChildren
	db := s.db.WithContext(ctx).Where("school_id = ?", schoolID).Session(&gorm.Session{})
	if err := db.Find(&out.MasterDegrees).Error; err != nil {
		return out, err
	}
	if err := db.Find(&out.DoctorateDegrees).Error; err != nil {
		return out, err
	}
	if err := db.Find(&out.Subjects).Error; err != nil {
		return out, err
	}
	if err := db.Find(&out.Specialties).Error; err != nil {
		return out, err
	}
	return out, nil
}

func deleteChildren(tx *gorm.DB, schoolID string) error {
	for _, m := range []any{&model.MasterDegreePoint{}, &model.DoctorateDegreePoint{}, &model.Subject{}, &model.Specialty{}} {
		if err := tx.Where("school_id = ?", schoolID).Delete(m).Error; err != nil {
			return fmt.Errorf("delete children of %s: %w", schoolID, err)
		}
	}
	return nil
}

func insertChildren(tx *gorm.DB, schoolID string, c model.DetailChildren) error {
	for i := range c.MasterDegrees {
		c.MasterDegrees[i].ID = 0
		c.MasterDegrees[i].SchoolID = schoolID
	}
	for i := range c.DoctorateDegrees {
		c.DoctorateDegrees[i].ID = 0
		c.DoctorateDegrees[i].SchoolID = schoolID
	}
	for i := range c.Subjects {
		c.Subjects[i].ID = 0
		c.Subjects[i].SchoolID = schoolID
	}
	for i := range c.Specialties {
		c.Specialties[i].ID = 0
		c.Specialties[i].SchoolID = schoolID
	}

	if len(c.MasterDegrees) > 0 {
		if err := tx.Create(&c.MasterDegrees).Error; err != nil {
			return fmt.Errorf("insert master degree points of %s: %w", schoolID, err)
		}
	}
	if len(c.DoctorateDegrees) > 0 {
		if err := tx.Create(&c.DoctorateDegrees).Error; err != nil {
			return fmt.Errorf("insert doctorate degree points of %s: %w", schoolID, err)
		}
	}
	if len(c.Subjects) > 0 {
		if err := tx.Create(&c.Subjects).Error; err != nil {
			return fmt.Errorf("insert subjects of %s: %w", schoolID, err)
		}
	}
	if len(c.Specialties) > 0 {
		if err := tx.Create(&c.Specialties).Error; err != nil {
			return fmt.Errorf("insert specialties of %s: %w", schoolID, err)
		}
	}
	return nil
}
