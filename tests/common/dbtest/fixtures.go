//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func CreateTestCourse(t *testing.T, db DBLike, id string, coursePrice, discountPrice float64) string {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO courses (id, title, course_price, discount_price) VALUES ($1, $2, $3, $4)",
		id, "Course "+id, coursePrice, discountPrice)
	require.NoError(t, err)

	return id
}

func CountEnrollments(t *testing.T, db DBLike, reference string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM enrollments WHERE payment_reference = $1", reference).Scan(&n)
	require.NoError(t, err)
	return n
}

// returns 0 when the summary row has not been created yet
func EarningsTotal(t *testing.T, db DBLike) float64 {
	t.Helper()

	var total float64
	err := db.QueryRow(context.Background(),
		"SELECT COALESCE((SELECT total::float8 FROM earnings_summary WHERE id = 'summary'), 0)").Scan(&total)
	require.NoError(t, err)
	return total
}

func EnrolledCourses(t *testing.T, db DBLike, userID string) []string {
	t.Helper()

	var courses []string
	err := db.QueryRow(context.Background(),
		"SELECT COALESCE((SELECT enrolled_courses FROM user_profiles WHERE user_id = $1), '{}'::text[])", userID).Scan(&courses)
	require.NoError(t, err)
	return courses
}

func CountOutbox(t *testing.T, db DBLike) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM enrollment_outbox").Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
