package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVideos = table{schema: "vidshare", name: "videos", columns: postColumns}

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name     string
		queries  []Query
		wantSQL  string
		wantArgs int
	}{
		{
			name:     "no predicates",
			wantSQL:  `SELECT "id", "title", "prompt", "thumbnail", "video", "creator", "created_at" FROM "vidshare"."videos"`,
			wantArgs: 0,
		},
		{
			name:     "equal",
			queries:  []Query{Equal("creator", "u1")},
			wantSQL:  `SELECT "id", "title", "prompt", "thumbnail", "video", "creator", "created_at" FROM "vidshare"."videos" WHERE "creator" = $1`,
			wantArgs: 1,
		},
		{
			name:     "order and limit",
			queries:  []Query{OrderDesc("created_at"), Limit(7)},
			wantSQL:  `SELECT "id", "title", "prompt", "thumbnail", "video", "creator", "created_at" FROM "vidshare"."videos" ORDER BY "created_at" DESC LIMIT $1`,
			wantArgs: 1,
		},
		{
			name:     "contains and search",
			queries:  []Query{Contains("id", "a", "b"), Search("title", "cat")},
			wantSQL:  `SELECT "id", "title", "prompt", "thumbnail", "video", "creator", "created_at" FROM "vidshare"."videos" WHERE "id" = ANY($1) AND "title" ILIKE $2`,
			wantArgs: 2,
		},
		{
			name:     "empty contains matches nothing",
			queries:  []Query{Contains("id")},
			wantSQL:  `SELECT "id", "title", "prompt", "thumbnail", "video", "creator", "created_at" FROM "vidshare"."videos" WHERE FALSE`,
			wantArgs: 0,
		},
		{
			name:     "ascending",
			queries:  []Query{OrderAsc("title")},
			wantSQL:  `SELECT "id", "title", "prompt", "thumbnail", "video", "creator", "created_at" FROM "vidshare"."videos" ORDER BY "title" ASC`,
			wantArgs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildSelect(testVideos, tt.queries)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestBuildSelect_UnknownColumn(t *testing.T) {
	_, _, err := buildSelect(testVideos, []Query{Equal("password", "x")})
	assert.Error(t, err)
}

func TestBuildSelect_NegativeLimit(t *testing.T) {
	_, _, err := buildSelect(testVideos, []Query{Limit(-1)})
	assert.Error(t, err)
}

func TestBuildSelect_SearchEscapesWildcards(t *testing.T) {
	_, args, err := buildSelect(testVideos, []Query{Search("title", "100%_off")})
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, `%100\%\_off%`, args[0])
}
