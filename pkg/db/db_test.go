package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestDialectKnownTypes(t *testing.T) {
	for _, typ := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialect(Config{Type: typ})
		require.NoError(t, err, typ)
		assert.NotNil(t, d, typ)
	}
}

func TestNewTestIsIsolatedAndPingable(t *testing.T) {
	type row struct {
		ID   int64 `gorm:"primaryKey"`
		Name string
	}

	first, err := NewTest()
	require.NoError(t, err)
	second, err := NewTest()
	require.NoError(t, err)

	require.NoError(t, first.AutoMigrate(&row{}))
	require.NoError(t, first.Create(&row{ID: 1, Name: "a"}).Error)

	assert.NoError(t, Ping(context.Background(), first))
	assert.False(t, second.Migrator().HasTable(&row{}))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindUnknown},
		{errors.New("boom"), KindUnknown},
		{gorm.ErrDuplicatedKey, KindDuplicateKey},
		{fmt.Errorf("insert operator: %w", gorm.ErrDuplicatedKey), KindDuplicateKey},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_operators_username" (SQLSTATE 23505)`), KindDuplicateKey},
		{errors.New("Error 1062 (23000): Duplicate entry 'admin' for key 'operators.username'"), KindDuplicateKey},
		{errors.New("UNIQUE constraint failed: operators.username"), KindDuplicateKey},
		{errors.New("ERROR: value too long for type character varying(100) (SQLSTATE 22001)"), KindValueTooLong},
		{errors.New("Error 1406 (22001): Data too long for column 'subject' at row 1"), KindValueTooLong},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), "%v", tc.err)
	}

	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: operators.username")))
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsValueTooLongErr(errors.New("value too long for type character varying(50)")))
	assert.False(t, IsValueTooLongErr(gorm.ErrDuplicatedKey))
}
