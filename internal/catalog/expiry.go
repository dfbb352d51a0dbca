package catalog

import "time"

// expirationLayouts は受講権APIが返す有効期限表記として受理するレイアウト。
// 旧形式のレスポンス（タイムゾーンなし・日付のみ）も受理する。
var expirationLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseExpiration は有効期限文字列をパースする。
// いずれのレイアウトにも一致しない場合はok=falseを返す。
// 呼び出し側はパース不能な有効期限を「期限切れ」として扱う。
func ParseExpiration(iso string) (time.Time, bool) {
	for _, layout := range expirationLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsNotExpired は有効期限がnow以降（now自身を含む）であればtrueを返す。
// グループ・プレイリスト・単体ビデオのいずれにも同一の判定を適用する。
// パース不能な有効期限は期限切れとして扱い、出力から除外される。
func IsNotExpired(iso string, now time.Time) bool {
	t, ok := ParseExpiration(iso)
	if !ok {
		return false
	}
	return !t.Before(now)
}

// isLaterExpiration はaがbより厳密に遅い有効期限であればtrueを返す。
// 重複IDの再調整（later-wins）に使用する。パース不能な値は
// ゼロ時刻として扱われ、比較に必ず敗れる。
func isLaterExpiration(a, b string) bool {
	ta, _ := ParseExpiration(a)
	tb, _ := ParseExpiration(b)
	return ta.After(tb)
}
