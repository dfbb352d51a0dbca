// Package catalog は受講権APIレスポンスの正規化パイプラインを提供する。
//
// パイプラインは純粋関数の合成であり、I/O・共有状態・並行処理を持たない。
// ネットワークフェッチ完了後、レスポンス描画前に1回呼び出される。
// 不正な入力でもエラーを返さず、欠損フィールドは安全なデフォルト値
// （0、空文字、空スライス）に縮退する。ここで例外を投げると
// ユーザーのメディア一覧全体が表示不能になるため、寛容さは意図的な設計である。
package catalog

// AccessResponse は受講権サービスのメディアアクセスAPIレスポンスを表す。
// groups / playlists / videos の3本のリストからなり、各要素は
// 本体（content）と受講権の有効期限（expirationDate）を持つエンベロープ構造。
type AccessResponse struct {
	Groups    []GroupEnvelope    `json:"groups"`
	Playlists []PlaylistEnvelope `json:"playlists"`
	Videos    []VideoEnvelope    `json:"videos"`
}

// GroupEnvelope はグループ本体と受講権有効期限の組を表す。
type GroupEnvelope struct {
	Content        RawGroup `json:"content"`
	ExpirationDate string   `json:"expirationDate"`
	Type           string   `json:"type"`
}

// PlaylistEnvelope はプレイリスト本体と受講権有効期限の組を表す。
type PlaylistEnvelope struct {
	Content        RawPlaylist `json:"content"`
	ExpirationDate string      `json:"expirationDate"`
	Type           string      `json:"type"`
}

// VideoEnvelope は単体ビデオ本体と受講権有効期限の組を表す。
// このリストがVideoMap（正準ビデオメタデータ）の供給源でもある。
type VideoEnvelope struct {
	Content        RawVideo `json:"content"`
	ExpirationDate string   `json:"expirationDate"`
	Type           string   `json:"type"`
}

// RawGroup はワイヤ形式のグループレコードを表す。
// ネストするプレイリスト・ビデオはエンベロープを持たず、
// 有効期限はグループ自身のexpirationDateを継承する。
type RawGroup struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Playlists []RawPlaylist `json:"playlists"`
	Videos    []RawVideo    `json:"videos"`
}

// RawPlaylist はワイヤ形式のプレイリストレコードを表す。
// ワイヤではnameではなくtitleを使う。正規化時に読み替える。
type RawPlaylist struct {
	ID     int64      `json:"id"`
	Title  string     `json:"title"`
	Videos []RawVideo `json:"videos"`
}

// RawVideo はワイヤ形式のビデオレコードを表す。
// ワイヤではname→title、coverImageUrl→coverImgUrlの表記になる。
// OrderNumberはnull許容のためポインタで受け、欠損は0に縮退する。
type RawVideo struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	CoverImgURL string       `json:"coverImgUrl"`
	Contents    []RawContent `json:"contents"`
	OrderNumber *int         `json:"orderNumber"`
}

// RawContent はワイヤ形式の付随コンテンツレコードを表す。
type RawContent struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	TextContent string `json:"textContent"`
	ResourceKey string `json:"resourceKey"`
	OrderNumber *int   `json:"orderNumber"`
}

// orderOrZero はnull許容のorderNumberを0縮退で取り出す。
func orderOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
