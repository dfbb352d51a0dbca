package catalog

import (
	"testing"

	"github.com/hitoshi/mediaman/internal/model"
)

// TestTransformVideo_VideoMapOverridePrecedence はVideoMapのエントリが
// コンテナ内レコード自身のフィールドより優先されることを検証する。
func TestTransformVideo_VideoMapOverridePrecedence(t *testing.T) {
	vm := map[int64]VideoSource{
		100: {URL: "A", CoverImageURL: "X", Contents: []model.Content{{ID: 1}}},
	}
	raw := RawVideo{ID: 100, Title: "講義", URL: "B", CoverImgURL: "Y"}

	v := transformVideo(raw, vm, "2099-01-01")

	if v.URL != "A" {
		t.Errorf("URL = %q, want VideoMap value %q", v.URL, "A")
	}
	if v.CoverImageURL != "X" {
		t.Errorf("CoverImageURL = %q, want %q", v.CoverImageURL, "X")
	}
	if len(v.Contents) != 1 || v.Contents[0].ID != 1 {
		t.Errorf("Contents should come from VideoMap")
	}
}

// TestTransformVideo_FallbackWhenAbsentFromVideoMap はVideoMapに
// エントリがない場合にレコード自身のフィールドへ縮退することを検証する。
func TestTransformVideo_FallbackWhenAbsentFromVideoMap(t *testing.T) {
	vm := map[int64]VideoSource{}
	raw := RawVideo{ID: 200, Title: "講義", URL: "B", CoverImgURL: "Y"}

	v := transformVideo(raw, vm, "2099-01-01")

	if v.URL != "B" {
		t.Errorf("URL = %q, want fallback %q", v.URL, "B")
	}
	if v.CoverImageURL != "Y" {
		t.Errorf("CoverImageURL = %q, want fallback %q", v.CoverImageURL, "Y")
	}
}

// TestTransformVideo_PartialVideoMapEntry はVideoMapエントリの欠損フィールドのみ
// レコード自身の値で補完されることを検証する。
func TestTransformVideo_PartialVideoMapEntry(t *testing.T) {
	vm := map[int64]VideoSource{
		300: {URL: "A"}, // カバー画像とコンテンツが欠損
	}
	raw := RawVideo{
		ID: 300, URL: "B", CoverImgURL: "Y",
		Contents: []RawContent{{ID: 9, Type: "TEXT"}},
	}

	v := transformVideo(raw, vm, "2099-01-01")

	if v.URL != "A" {
		t.Errorf("URL = %q, want %q", v.URL, "A")
	}
	if v.CoverImageURL != "Y" {
		t.Errorf("CoverImageURL = %q, want fallback %q", v.CoverImageURL, "Y")
	}
	if len(v.Contents) != 1 || v.Contents[0].ID != 9 {
		t.Errorf("Contents should fall back to the raw record")
	}
}

func TestTransformVideo_DefaultsForMissingFields(t *testing.T) {
	v := transformVideo(RawVideo{ID: 1}, nil, "2099-01-01")

	if v.OrderNumber != 0 {
		t.Errorf("OrderNumber = %d, want 0", v.OrderNumber)
	}
	if v.ExpirationDate != "2099-01-01" {
		t.Errorf("ExpirationDate = %q", v.ExpirationDate)
	}
	if len(v.Contents) != 0 {
		t.Errorf("Contents = %v, want empty", v.Contents)
	}
}

// TestTransformPlaylist_InheritsExpirationAndSorts はプレイリストの有効期限が
// 全ての子ビデオへ継承され、orderNumber昇順に整列されることを検証する。
func TestTransformPlaylist_InheritsExpirationAndSorts(t *testing.T) {
	raw := RawPlaylist{
		ID:    10,
		Title: "基礎講座",
		Videos: []RawVideo{
			{ID: 100, Title: "第2回", OrderNumber: intPtr(2)},
			{ID: 101, Title: "第1回", OrderNumber: intPtr(1)},
		},
	}

	p := transformPlaylist(raw, nil, "2099-06-01")

	if p.Name != "基礎講座" {
		t.Errorf("Name = %q (titleからの読み替え)", p.Name)
	}
	if p.ExpirationDate != "2099-06-01" {
		t.Errorf("ExpirationDate = %q", p.ExpirationDate)
	}
	if p.Videos[0].ID != 101 || p.Videos[1].ID != 100 {
		t.Errorf("videos order = [%d, %d], want [101, 100]", p.Videos[0].ID, p.Videos[1].ID)
	}
	for _, v := range p.Videos {
		if v.ExpirationDate != "2099-06-01" {
			t.Errorf("video %d ExpirationDate = %q, want inherited", v.ID, v.ExpirationDate)
		}
	}
}

// TestTransformGroup_SortsPlaylistsByID はグループ内プレイリストが
// ID昇順、直下ビデオがorderNumber昇順に整列されることを検証する。
func TestTransformGroup_SortsPlaylistsByID(t *testing.T) {
	raw := RawGroup{
		ID:   1,
		Name: "応用コース",
		Playlists: []RawPlaylist{
			{ID: 20, Title: "後編"},
			{ID: 10, Title: "前編"},
		},
		Videos: []RawVideo{
			{ID: 300, OrderNumber: intPtr(5)},
			{ID: 301, OrderNumber: intPtr(1)},
		},
	}

	g := transformGroup(raw, nil, "2099-01-01")

	if g.Playlists[0].ID != 10 || g.Playlists[1].ID != 20 {
		t.Errorf("playlists order = [%d, %d], want [10, 20]", g.Playlists[0].ID, g.Playlists[1].ID)
	}
	if g.Videos[0].ID != 301 || g.Videos[1].ID != 300 {
		t.Errorf("videos order = [%d, %d], want [301, 300]", g.Videos[0].ID, g.Videos[1].ID)
	}
	for _, p := range g.Playlists {
		if p.ExpirationDate != "2099-01-01" {
			t.Errorf("playlist %d ExpirationDate = %q, want inherited", p.ID, p.ExpirationDate)
		}
	}
}
