package collector

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
)

type fakeClient struct {
	mu        sync.Mutex
	pages     [][]models.RawVacancy
	failPage  int
	failIDs   map[string]bool
	pageCalls []int
}

func (f *fakeClient) SearchPage(_ context.Context, _ string, page int) (*models.SearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls = append(f.pageCalls, page)
	if f.failPage > 0 && page == f.failPage {
		return nil, errors.Unavailable("boom", nil)
	}
	found := 0
	for _, p := range f.pages {
		found += len(p)
	}
	return &models.SearchPage{Items: f.pages[page], Found: found, Pages: len(f.pages), Page: page}, nil
}

func (f *fakeClient) Vacancy(_ context.Context, id string) (models.DetailRecord, error) {
	if f.failIDs[id] {
		return nil, errors.NotFound("gone", nil)
	}
	return models.DetailRecord{"id": id, "name": "detail " + id}, nil
}

func rawPage(ids ...string) []models.RawVacancy {
	items := make([]models.RawVacancy, len(ids))
	for i, id := range ids {
		items[i] = models.RawVacancy{"id": id}
	}
	return items
}

func TestSearchCapsPagesAndDropsDuplicates(t *testing.T) {
	client := &fakeClient{pages: [][]models.RawVacancy{
		rawPage("1", "2"),
		rawPage("2", "3"),
		rawPage("4"),
	}}
	c := NewCollector(client, zap.NewNop(), Options{MaxPages: 2, Workers: 2})

	got, stats, err := c.Search(context.Background(), "analyst")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, client.pageCalls)
	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 5, stats.Found)
	assert.Equal(t, 1, stats.Duplicates)
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[2].ID())
}

func TestSearchPageErrorAborts(t *testing.T) {
	client := &fakeClient{
		pages:    [][]models.RawVacancy{rawPage("1"), rawPage("2")},
		failPage: 1,
	}
	c := NewCollector(client, zap.NewNop(), Options{MaxPages: 5})

	got, _, err := c.Search(context.Background(), "analyst")
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestEnrichKeepsOrderAndSkipsFailures(t *testing.T) {
	var raws []models.RawVacancy
	for i := 0; i < 50; i++ {
		raws = append(raws, models.RawVacancy{"id": fmt.Sprint(i)})
	}
	raws = append(raws, models.RawVacancy{"name": "no id"})

	client := &fakeClient{failIDs: map[string]bool{"7": true, "31": true}}
	c := NewCollector(client, zap.NewNop(), Options{Workers: 8})

	details, stats, err := c.Enrich(context.Background(), raws)
	require.NoError(t, err)

	assert.EqualValues(t, 51, stats.Requested)
	assert.EqualValues(t, 48, stats.Fetched)
	assert.EqualValues(t, 2, stats.Failed)
	assert.EqualValues(t, 1, stats.Skipped)
	require.Len(t, details, 48)

	prev := -1
	for _, d := range details {
		var n int
		_, err := fmt.Sscan(d.ID(), &n)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		assert.NotEqual(t, 7, n)
		prev = n
	}
}

func TestEnrichCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCollector(&fakeClient{}, zap.NewNop(), Options{Workers: 2})
	_, _, err := c.Enrich(ctx, rawPage("1", "2", "3"))
	assert.ErrorIs(t, err, context.Canceled)
}
