package readstore

import (
	"context"
	"log/slog"

	"course-enrollment/internal/infra"
	"course-enrollment/internal/infra/db"
	"course-enrollment/internal/usecase/shared"
)

const getCourseByIDSQL = `
SELECT id, course_price, discount_price
FROM courses
WHERE id = $1`

type CourseReadStore struct {
	logger *slog.Logger
}

func NewCourseReadStore(logger *slog.Logger) *CourseReadStore {
	return &CourseReadStore{logger: logger}
}

func (s *CourseReadStore) FindByID(ctx context.Context, dbtx db.DBTX, id string) (*shared.CourseSnapshot, error) {
	var snap shared.CourseSnapshot
	err := dbtx.QueryRow(ctx, getCourseByIDSQL, id).Scan(&snap.ID, &snap.CoursePrice, &snap.DiscountPrice)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.NotFound("course not found")
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to find course by ID", err)
	}
	return &snap, nil
}
