package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/irisworks/jama-mcp/internal/jama"
)

// fakeAPI counts upstream calls. The embedded interface panics on any
// method a test did not stub, which keeps accidental passthroughs loud.
type fakeAPI struct {
	jama.API

	itemTypeCalls atomic.Int32
	projectCalls  atomic.Int32
	itemCalls     atomic.Int32

	itemTypesErr error
	fetchDelay   time.Duration
}

func (f *fakeAPI) GetItemTypes(ctx context.Context) ([]jama.ItemType, error) {
	f.itemTypeCalls.Add(1)
	if f.fetchDelay > 0 {
		time.Sleep(f.fetchDelay)
	}
	if f.itemTypesErr != nil {
		err := f.itemTypesErr
		f.itemTypesErr = nil
		return nil, err
	}
	return []jama.ItemType{{ID: 30, Name: "Requirement"}, {ID: 31, Name: "Test Case"}}, nil
}

func (f *fakeAPI) GetProjects(ctx context.Context, startAt, maxResults int) ([]jama.Project, *jama.PageInfo, error) {
	f.projectCalls.Add(1)
	return []jama.Project{{ID: 1, Name: "Alpha"}},
		&jama.PageInfo{StartIndex: startAt, ResultCount: 1, TotalResults: 1}, nil
}

func (f *fakeAPI) GetItem(ctx context.Context, id int) (*jama.Item, error) {
	f.itemCalls.Add(1)
	return &jama.Item{ID: id, CurrentVersion: int(f.itemCalls.Load())}, nil
}

func newTestCatalog(t *testing.T, api jama.API, ttl time.Duration) *Catalog {
	t.Helper()
	c, err := New(api, Config{TTL: ttl}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCatalogCachesItemTypes(t *testing.T) {
	fake := &fakeAPI{}
	c := newTestCatalog(t, fake, time.Minute)

	for i := 0; i < 3; i++ {
		types, err := c.GetItemTypes(context.Background())
		if err != nil {
			t.Fatalf("GetItemTypes: %v", err)
		}
		if len(types) != 2 || types[0].Name != "Requirement" {
			t.Errorf("types = %+v", types)
		}
	}
	if got := fake.itemTypeCalls.Load(); got != 1 {
		t.Errorf("upstream saw %d calls, want 1", got)
	}
}

func TestCatalogExpiresEntries(t *testing.T) {
	fake := &fakeAPI{}
	c := newTestCatalog(t, fake, 20*time.Millisecond)

	if _, err := c.GetItemTypes(context.Background()); err != nil {
		t.Fatalf("GetItemTypes: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := c.GetItemTypes(context.Background()); err != nil {
		t.Fatalf("GetItemTypes: %v", err)
	}
	if got := fake.itemTypeCalls.Load(); got != 2 {
		t.Errorf("upstream saw %d calls, want 2 after TTL expiry", got)
	}
}

func TestCatalogDoesNotCacheErrors(t *testing.T) {
	fake := &fakeAPI{itemTypesErr: errors.New("upstream down")}
	c := newTestCatalog(t, fake, time.Minute)

	if _, err := c.GetItemTypes(context.Background()); err == nil {
		t.Fatal("expected first call to fail")
	}
	types, err := c.GetItemTypes(context.Background())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(types) != 2 {
		t.Errorf("types = %+v", types)
	}
	if got := fake.itemTypeCalls.Load(); got != 2 {
		t.Errorf("upstream saw %d calls, want 2", got)
	}
}

func TestCatalogCoalescesConcurrentMisses(t *testing.T) {
	fake := &fakeAPI{fetchDelay: 100 * time.Millisecond}
	c := newTestCatalog(t, fake, time.Minute)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := c.GetItemTypes(context.Background()); err != nil {
				t.Errorf("GetItemTypes: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := fake.itemTypeCalls.Load(); got != 1 {
		t.Errorf("upstream saw %d calls, want 1 coalesced fetch", got)
	}
}

func TestCatalogCachesProjectPages(t *testing.T) {
	fake := &fakeAPI{}
	c := newTestCatalog(t, fake, time.Minute)

	for i := 0; i < 2; i++ {
		projects, page, err := c.GetProjects(context.Background(), 0, 20)
		if err != nil {
			t.Fatalf("GetProjects: %v", err)
		}
		if len(projects) != 1 || page == nil || page.TotalResults != 1 {
			t.Errorf("projects = %+v, page = %+v", projects, page)
		}
	}
	// A different page is a different cache entry.
	if _, _, err := c.GetProjects(context.Background(), 20, 20); err != nil {
		t.Fatalf("GetProjects: %v", err)
	}
	if got := fake.projectCalls.Load(); got != 2 {
		t.Errorf("upstream saw %d calls, want 2", got)
	}
}

func TestCatalogPassesItemReadsThrough(t *testing.T) {
	fake := &fakeAPI{}
	c := newTestCatalog(t, fake, time.Minute)

	first, err := c.GetItem(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	second, err := c.GetItem(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if first.CurrentVersion == second.CurrentVersion {
		t.Error("item reads must not be served from cache")
	}
	if got := fake.itemCalls.Load(); got != 2 {
		t.Errorf("upstream saw %d calls, want 2", got)
	}
}
