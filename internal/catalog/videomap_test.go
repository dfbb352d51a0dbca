package catalog

import "testing"

func intPtr(n int) *int { return &n }

func TestBuildVideoMap_IndexesByVideoID(t *testing.T) {
	envs := []VideoEnvelope{
		{
			Content: RawVideo{
				ID:          100,
				Title:       "第1回講義",
				URL:         "https://cdn.example.com/v/100",
				CoverImgURL: "https://cdn.example.com/c/100.jpg",
				Contents: []RawContent{
					{ID: 2, Type: "TEXT", TextContent: "補足", OrderNumber: intPtr(2)},
					{ID: 1, Type: "IMAGE", ResourceKey: "key-1", OrderNumber: intPtr(1)},
				},
			},
			ExpirationDate: "2099-01-01",
			Type:           "VIDEO",
		},
	}

	vm := BuildVideoMap(envs)

	src, ok := vm[100]
	if !ok {
		t.Fatal("video 100 should be indexed")
	}
	if src.URL != "https://cdn.example.com/v/100" {
		t.Errorf("URL = %q", src.URL)
	}
	if src.CoverImageURL != "https://cdn.example.com/c/100.jpg" {
		t.Errorf("CoverImageURL = %q", src.CoverImageURL)
	}
	// 付随コンテンツはorderNumber昇順に整列される
	if len(src.Contents) != 2 {
		t.Fatalf("len(Contents) = %d, want 2", len(src.Contents))
	}
	if src.Contents[0].ID != 1 || src.Contents[1].ID != 2 {
		t.Errorf("contents order = [%d, %d], want [1, 2]", src.Contents[0].ID, src.Contents[1].ID)
	}
}

// TestBuildVideoMap_LastOccurrenceWins は同一IDの重複時に後の出現が勝つことを検証する。
// このステージでは有効期限を比較しない。
func TestBuildVideoMap_LastOccurrenceWins(t *testing.T) {
	envs := []VideoEnvelope{
		{Content: RawVideo{ID: 7, URL: "https://cdn.example.com/old"}, ExpirationDate: "2099-12-31"},
		{Content: RawVideo{ID: 7, URL: "https://cdn.example.com/new"}, ExpirationDate: "2024-01-01"},
	}

	vm := BuildVideoMap(envs)

	if vm[7].URL != "https://cdn.example.com/new" {
		t.Errorf("URL = %q, want last occurrence", vm[7].URL)
	}
}

// TestBuildVideoMap_MalformedEntry は欠損フィールドがエラーにならないことを検証する。
func TestBuildVideoMap_MalformedEntry(t *testing.T) {
	envs := []VideoEnvelope{
		{Content: RawVideo{ID: 5}},
	}

	vm := BuildVideoMap(envs)

	src, ok := vm[5]
	if !ok {
		t.Fatal("malformed entry should still be indexed")
	}
	if src.URL != "" || src.CoverImageURL != "" {
		t.Errorf("empty fields expected, got URL=%q cover=%q", src.URL, src.CoverImageURL)
	}
	if len(src.Contents) != 0 {
		t.Errorf("len(Contents) = %d, want 0", len(src.Contents))
	}
}

func TestTransformContents_NullOrderNumberDefaultsToZero(t *testing.T) {
	raw := []RawContent{
		{ID: 1, Type: "TEXT", OrderNumber: intPtr(3)},
		{ID: 2, Type: "TEXT"}, // orderNumber欠損 → 0
	}

	contents := transformContents(raw)

	if contents[0].ID != 2 {
		t.Errorf("contents[0].ID = %d, want 2 (orderNumber 0 first)", contents[0].ID)
	}
	if contents[0].OrderNumber != 0 {
		t.Errorf("OrderNumber = %d, want 0", contents[0].OrderNumber)
	}
}
