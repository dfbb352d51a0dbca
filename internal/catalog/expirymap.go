package catalog

import "time"

// BuildVideoExpirationMap は受講権レスポンス全体を走査し、ビデオID→
// 既知の最も遅い有効期限の索引を構築する。
//
// タグ検索の結果は自前の有効期限を持たないため、この索引で補完される。
// 走査経路はグループ→プレイリスト→ビデオ、グループ→直下ビデオ、
// プレイリスト→ビデオ、単体ビデオの4系統。子ビデオはコンテナの
// 有効期限を継承する。同一ビデオIDが複数経路で観測された場合は
// コンテナ単位の再調整と同じlater-wins比較をビデオID粒度で適用する。
//
// 期限切れコンテナ配下のビデオは記録されない。索引に存在しない
// ビデオは視聴不可として下流でフィルタされる。
func BuildVideoExpirationMap(data *AccessResponse, now time.Time) map[int64]string {
	expirations := make(map[int64]string)
	if data == nil {
		return expirations
	}

	record := func(videoID int64, expirationDate string) {
		if current, ok := expirations[videoID]; ok {
			if !isLaterExpiration(expirationDate, current) {
				return
			}
		}
		expirations[videoID] = expirationDate
	}

	for _, env := range data.Groups {
		if !IsNotExpired(env.ExpirationDate, now) {
			continue
		}
		for _, pl := range env.Content.Playlists {
			for _, v := range pl.Videos {
				record(v.ID, env.ExpirationDate)
			}
		}
		for _, v := range env.Content.Videos {
			record(v.ID, env.ExpirationDate)
		}
	}

	for _, env := range data.Playlists {
		if !IsNotExpired(env.ExpirationDate, now) {
			continue
		}
		for _, v := range env.Content.Videos {
			record(v.ID, env.ExpirationDate)
		}
	}

	for _, env := range data.Videos {
		if !IsNotExpired(env.ExpirationDate, now) {
			continue
		}
		record(env.Content.ID, env.ExpirationDate)
	}

	return expirations
}
