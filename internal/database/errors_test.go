package database

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/sanctumapp/sanctum/internal/errors"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "postgres unique violation",
			err:  &pq.Error{Code: "23505"},
			want: true,
		},
		{
			name: "postgres other error",
			err:  &pq.Error{Code: "23503"},
			want: false,
		},
		{
			name: "mysql duplicate entry",
			err:  &mysql.MySQLError{Number: 1062},
			want: true,
		},
		{
			name: "mysql other error",
			err:  &mysql.MySQLError{Number: 1452},
			want: false,
		},
		{
			name: "wrapped driver error",
			err:  fmt.Errorf("insert failed: %w", &pq.Error{Code: "23505"}),
			want: true,
		},
		{
			name: "unrelated error",
			err:  apperrors.New("boom"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
