package implementation

import (
	"context"
	"errors"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/mapper"
	"ml-segregation-be/internal/model"
	"ml-segregation-be/internal/repository/contract"
	"ml-segregation-be/internal/repository/specification"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SessionRepositoryImpl) CreateBatch(ctx context.Context, sessions []*entity.PreparedSession) error {
	models := r.mapper.ToModels(sessions)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return contract.ErrDuplicateSession
		}
		return err
	}
	return nil
}

func (r *SessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PreparedSession, error) {
	var models []*model.PreparedSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.PreparedSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SessionRepositoryImpl) LabelCounts(ctx context.Context, specs ...specification.Specification) (map[string]int64, error) {
	var rows []struct {
		Label string
		Total int64
	}
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.PreparedSession{}), specs...)
	if err := query.Select("label, COUNT(*) AS total").Group("label").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Label] = row.Total
	}
	return counts, nil
}

func (r *SessionRepositoryImpl) MarkProcessed(ctx context.Context, uuids []string) error {
	if len(uuids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.PreparedSession{}).
		Where("uuid IN ?", uuids).
		Update("processed", true).Error
}

func (r *SessionRepositoryImpl) RequeueDeferred(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&model.PreparedSession{}).
		Where("processed = ? AND deferred = ?", false, true).
		Update("deferred", false).Error
}

func (r *SessionRepositoryImpl) DeleteProcessed(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("processed = ?", true).
		Delete(&model.PreparedSession{})
	return result.RowsAffected, result.Error
}
