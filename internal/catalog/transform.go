package catalog

import (
	"sort"

	"github.com/hitoshi/mediaman/internal/model"
)

// transformVideo はワイヤ形式のビデオレコードを正規化ドメインモデルに変換する。
// url・カバー画像・付随コンテンツはVideoMapのエントリを優先し、
// エントリがない（またはエントリ側が欠損している）フィールドのみ
// レコード自身の値に縮退する。有効期限はコンテナから継承した値を用いる。
func transformVideo(raw RawVideo, vm map[int64]VideoSource, expirationDate string) model.Video {
	v := model.Video{
		ID:             raw.ID,
		OrderNumber:    orderOrZero(raw.OrderNumber),
		Name:           raw.Title,
		URL:            raw.URL,
		ExpirationDate: expirationDate,
		CoverImageURL:  raw.CoverImgURL,
	}

	if src, ok := vm[raw.ID]; ok {
		if src.URL != "" {
			v.URL = src.URL
		}
		if src.CoverImageURL != "" {
			v.CoverImageURL = src.CoverImageURL
		}
		if src.Contents != nil {
			v.Contents = src.Contents
			return v
		}
	}

	v.Contents = transformContents(raw.Contents)
	return v
}

// transformPlaylist はワイヤ形式のプレイリストを正規化する。
// 子ビデオにはプレイリスト自身の有効期限を継承させ、orderNumber昇順に整列する。
func transformPlaylist(raw RawPlaylist, vm map[int64]VideoSource, expirationDate string) model.Playlist {
	videos := make([]model.Video, 0, len(raw.Videos))
	for _, rv := range raw.Videos {
		videos = append(videos, transformVideo(rv, vm, expirationDate))
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].OrderNumber < videos[j].OrderNumber
	})

	return model.Playlist{
		ID:             raw.ID,
		Name:           raw.Title,
		ExpirationDate: expirationDate,
		Videos:         videos,
	}
}

// transformGroup はワイヤ形式のグループを正規化する。
// ネストするプレイリスト・直下ビデオの双方にグループ自身の有効期限を継承させる。
// プレイリストはID昇順、直下ビデオはorderNumber昇順に整列する。
func transformGroup(raw RawGroup, vm map[int64]VideoSource, expirationDate string) model.Group {
	playlists := make([]model.Playlist, 0, len(raw.Playlists))
	for _, rp := range raw.Playlists {
		playlists = append(playlists, transformPlaylist(rp, vm, expirationDate))
	}
	sort.SliceStable(playlists, func(i, j int) bool {
		return playlists[i].ID < playlists[j].ID
	})

	videos := make([]model.Video, 0, len(raw.Videos))
	for _, rv := range raw.Videos {
		videos = append(videos, transformVideo(rv, vm, expirationDate))
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].OrderNumber < videos[j].OrderNumber
	})

	return model.Group{
		ID:             raw.ID,
		Name:           raw.Name,
		ExpirationDate: expirationDate,
		Playlists:      playlists,
		Videos:         videos,
	}
}
