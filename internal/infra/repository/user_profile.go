package repository

import (
	"context"
	"log/slog"

	"course-enrollment/internal/infra"
	"course-enrollment/internal/infra/db"
)

// The CASE keeps enrolled_courses a set: a course already present is not appended again.
const addEnrolledCourseSQL = `
INSERT INTO user_profiles (user_id, enrolled_courses, updated_at)
VALUES ($1, ARRAY[$2::text], now())
ON CONFLICT (user_id) DO UPDATE
SET enrolled_courses = CASE
        WHEN $2::text = ANY(user_profiles.enrolled_courses) THEN user_profiles.enrolled_courses
        ELSE array_append(user_profiles.enrolled_courses, $2::text)
    END,
    updated_at = now()`

type UserProfileRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewUserProfileRepository(dbtx db.DBTX, logger *slog.Logger) *UserProfileRepository {
	return &UserProfileRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *UserProfileRepository) AddEnrolledCourse(ctx context.Context, userID, courseID string) error {
	if _, err := r.db.Exec(ctx, addEnrolledCourseSQL, userID, courseID); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to add enrolled course", err)
	}
	return nil
}
