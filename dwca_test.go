package bioportal

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/bioportal/internal/nbatest"
)

var fixedNow = time.Date(2024, time.March, 5, 9, 7, 0, 0, time.UTC)

func newDwCAClient(t *testing.T) (*Client, *nbatest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	c, srv := newTestClient(t, WithDownloadDir(dir), withClock(func() time.Time { return fixedNow }))
	return c, srv, dir
}

func TestDwCAQuery(t *testing.T) {
	c, srv, dir := newDwCAClient(t)
	require.NoError(t, c.Specimen().AttachSpec(countrySpec(t, "Netherlands")))

	path, err := c.DwCAQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "specimen-20240305-0907.dwca.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, nbatest.ArchiveBody, string(data))

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/specimen/dwca/query/", reqs[0].Path)
	assert.Contains(t, reqs[0].QuerySpec(), "Netherlands")
	assert.Contains(t, c.QueryURL(), "specimen/dwca/query/?_querySpec=")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestDwCAQuery_StateErrors(t *testing.T) {
	t.Run("no download dir", func(t *testing.T) {
		c, srv := newTestClient(t)
		require.NoError(t, c.Specimen().AttachSpec(countrySpec(t, "Netherlands")))
		_, err := c.DwCAQuery(context.Background())
		assert.ErrorIs(t, err, ErrState)
		assert.Zero(t, srv.Count())
	})
	t.Run("multimedia", func(t *testing.T) {
		c, _, _ := newDwCAClient(t)
		require.NoError(t, c.Multimedia().AttachSpec(countrySpec(t, "Netherlands")))
		_, err := c.DwCAQuery(context.Background())
		assert.ErrorIs(t, err, ErrState)
	})
	t.Run("two services", func(t *testing.T) {
		c, _, _ := newDwCAClient(t)
		require.NoError(t, c.Select(ServiceSpecimen, ServiceTaxon))
		require.NoError(t, c.AttachSpec(countrySpec(t, "Netherlands")))
		_, err := c.DwCAQuery(context.Background())
		assert.ErrorIs(t, err, ErrState)
	})
	t.Run("no spec", func(t *testing.T) {
		c, _, _ := newDwCAClient(t)
		_, err := c.Taxon().DwCAQuery(context.Background())
		assert.ErrorIs(t, err, ErrState)
	})
}

func TestDwCADataSet(t *testing.T) {
	c, srv, dir := newDwCAClient(t)

	path, err := c.Specimen().DwCADataSet(context.Background(), "aves")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aves-20240305.dwca.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, nbatest.ArchiveBody, string(data))

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/specimen/dwca/getDataSetNames", reqs[0].Path)
	assert.Equal(t, "/specimen/dwca/getDataSet/aves", reqs[1].Path)
}

func TestDwCADataSet_UnknownName(t *testing.T) {
	c, _, dir := newDwCAClient(t)

	_, err := c.Specimen().DwCADataSet(context.Background(), "dinosauria")
	assert.ErrorIs(t, err, ErrValidation)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDwCADataSet_ServerError(t *testing.T) {
	c, srv, dir := newDwCAClient(t)
	srv.Override("/specimen/dwca/getDataSet/aves", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Specimen().DwCADataSet(context.Background(), "aves")
	assert.ErrorIs(t, err, ErrTransport)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDwCADataSetNames(t *testing.T) {
	c, _ := newTestClient(t)

	names, err := c.Taxon().DwCADataSetNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"amphibia-and-reptilia", "aves", "mammalia"}, names)

	_, err = c.Geo().DwCADataSetNames(context.Background())
	assert.ErrorIs(t, err, ErrState)

	_, err = c.All().DwCADataSetNames(context.Background())
	assert.ErrorIs(t, err, ErrState)
}
