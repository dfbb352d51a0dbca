package catalog

import (
	"sort"
	"time"

	"github.com/hitoshi/mediaman/internal/model"
)

// ProcessAccessResponse は受講権APIレスポンスを表示用の正規化項目リストに変換する。
//
// 処理順序:
//  1. トップレベルvideosリストからVideoMapを構築する
//  2. グループを有効期限でフィルタし、later-winsで重複排除する
//  3. プレイリストを同様にフィルタ・変換・重複排除する
//  4. 単体ビデオをフィルタ・変換し、orderNumber昇順に整列する
//  5. グループ→プレイリスト→単体ビデオの順に連結して返す
//
// nowは呼び出し側で1回だけ確定させて渡す。1パス内の全有効期限判定が
// 同一時刻を基準とすることで、境界時刻での判定不整合を防ぐ。
func ProcessAccessResponse(data *AccessResponse, now time.Time) []model.Item {
	if data == nil {
		return []model.Item{}
	}

	vm := BuildVideoMap(data.Videos)

	groups := reconcileGroups(data.Groups, vm, now)
	playlists := reconcilePlaylists(data.Playlists, vm, now)
	videos := standaloneVideos(data.Videos, now)

	items := make([]model.Item, 0, len(groups)+len(playlists)+len(videos))
	for _, g := range groups {
		items = append(items, g)
	}
	for _, p := range playlists {
		items = append(items, p)
	}
	for _, v := range videos {
		items = append(items, v)
	}
	return items
}

// reconcileGroups は有効期限を通過したグループをID単位で重複排除する。
// 同一IDが複数回出現した場合（重複する受講権）、有効期限が厳密に遅い
// エンベロープが既存エントリをサブツリーごと置き換える（later-wins）。
// フィールド単位のマージは行わない。出力順は初回出現順を保つ。
func reconcileGroups(envs []GroupEnvelope, vm map[int64]VideoSource, now time.Time) []model.Group {
	var ordered []model.Group
	index := make(map[int64]int)

	for _, env := range envs {
		if !IsNotExpired(env.ExpirationDate, now) {
			continue
		}
		g := transformGroup(env.Content, vm, env.ExpirationDate)
		if i, ok := index[g.ID]; ok {
			if isLaterExpiration(env.ExpirationDate, ordered[i].ExpirationDate) {
				ordered[i] = g
			}
			continue
		}
		index[g.ID] = len(ordered)
		ordered = append(ordered, g)
	}
	return ordered
}

// reconcilePlaylists は有効期限を通過したプレイリストをID単位で重複排除する。
// 上流でID重複が除かれている前提だが、フィードの重複に備えて
// グループと同じlater-wins比較を適用する。
func reconcilePlaylists(envs []PlaylistEnvelope, vm map[int64]VideoSource, now time.Time) []model.Playlist {
	var ordered []model.Playlist
	index := make(map[int64]int)

	for _, env := range envs {
		if !IsNotExpired(env.ExpirationDate, now) {
			continue
		}
		p := transformPlaylist(env.Content, vm, env.ExpirationDate)
		if i, ok := index[p.ID]; ok {
			if isLaterExpiration(env.ExpirationDate, ordered[i].ExpirationDate) {
				ordered[i] = p
			}
			continue
		}
		index[p.ID] = len(ordered)
		ordered = append(ordered, p)
	}
	return ordered
}

// standaloneVideos は有効期限を通過した単体ビデオを変換し、orderNumber昇順で返す。
// このリスト自体がVideoMapの供給源のため、VideoMapを再参照せず
// content自身のurl・カバー画像をそのまま使う。
func standaloneVideos(envs []VideoEnvelope, now time.Time) []model.Video {
	videos := make([]model.Video, 0, len(envs))
	for _, env := range envs {
		if !IsNotExpired(env.ExpirationDate, now) {
			continue
		}
		videos = append(videos, transformVideo(env.Content, nil, env.ExpirationDate))
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].OrderNumber < videos[j].OrderNumber
	})
	return videos
}
