// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/testutil"
)

// TestConcurrentScans verifies that simultaneous scans from several users
// all land in the ledger intact and in per-user order
func TestConcurrentScans(t *testing.T) {
	env := testutil.NewTestService(t)
	handler := NewScanHandler(env.Service, env.Config)
	record := guard(env).RequireSession(handler.RecordWidget)

	numUsers := 6
	perUser := 20
	cookies := make([]*http.Cookie, numUsers)
	for i := 0; i < numUsers; i++ {
		id := env.CreateTestUser(t, fmt.Sprintf("op%d", i), "pw", false)
		cookies[i] = env.LoginCookie(t, id)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numUsers; i++ {
		wg.Add(1)
		go func(userIdx int) {
			defer wg.Done()
			for n := 0; n < perUser; n++ {
				body := models.WidgetScanRequest{Barcode: fmt.Sprintf("op%d-%03d", userIdx, n)}
				w := httptest.NewRecorder()
				record(w, testutil.WithCookie(testutil.MakeRequest("POST", "/scans", body, nil), cookies[userIdx]))
				if w.Code == http.StatusCreated {
					successCount.Add(1)
				} else {
					t.Errorf("op%d scan %d: %d - %s", userIdx, n, w.Code, w.Body.String())
				}
			}
		}(i)
	}
	wg.Wait()

	if got := int(successCount.Load()); got != numUsers*perUser {
		t.Fatalf("expected %d successful scans, got %d", numUsers*perUser, got)
	}

	scans, err := env.Ledger.Load(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(scans) != numUsers*perUser {
		t.Fatalf("expected %d rows, got %d", numUsers*perUser, len(scans))
	}

	next := make(map[string]int)
	for _, s := range scans {
		want := fmt.Sprintf("%s-%03d", s.Username, next[s.Username])
		if s.Barcode != want {
			t.Fatalf("row out of order for %s: expected %s, got %s", s.Username, want, s.Barcode)
		}
		next[s.Username]++
	}
}

// TestConcurrentScansDuringRename checks that no row is lost or left under
// the old name when a rename runs between appends
func TestConcurrentScansDuringRename(t *testing.T) {
	env := testutil.NewTestService(t)
	handler := NewScanHandler(env.Service, env.Config)
	record := guard(env).RequireSession(handler.RecordWidget)

	other := env.CreateTestUser(t, "other", "pw", false)
	env.CreateTestUser(t, "old", "pw", false)
	for i := 0; i < 10; i++ {
		env.RecordTestScan(t, models.Identity{Username: "old"}, fmt.Sprintf("old-%d", i))
	}
	cookie := env.LoginCookie(t, other)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for n := 0; n < 30; n++ {
			w := httptest.NewRecorder()
			record(w, testutil.WithCookie(testutil.MakeRequest("POST", "/scans", models.WidgetScanRequest{Barcode: fmt.Sprintf("other-%d", n)}, nil), cookie))
			if w.Code != http.StatusCreated {
				t.Errorf("scan %d: %d", n, w.Code)
			}
		}
	}()
	go func() {
		defer wg.Done()
		if err := env.Service.RenameUser(t.Context(), "old", "new"); err != nil {
			t.Errorf("rename: %v", err)
		}
	}()
	wg.Wait()

	scans, err := env.Ledger.Load(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]int)
	for _, s := range scans {
		counts[s.Username]++
	}
	if counts["new"] != 10 || counts["old"] != 0 || counts["other"] != 30 {
		t.Errorf("unexpected counts after rename: %v", counts)
	}
}
