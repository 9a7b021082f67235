package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAdminIDs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "42", want: []int64{42}},
		{name: "spaces and blanks", raw: " 1, 2 ,,3 ", want: []int64{1, 2, 3}},
		{name: "garbage", raw: "1,abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAdminIDs(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAdminIDsPrefersDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("NUKEM_ADMIN_USER_IDS", "1")

	ids, err := AdminIDs()
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NUKEM_ADMIN_USER_IDS=7,8\n"), 0o600))
	ids, err = AdminIDs()
	require.NoError(t, err)
	require.Equal(t, []int64{7, 8}, ids)
}
