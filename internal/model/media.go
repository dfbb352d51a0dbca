// Package model はドメインモデルを定義する。
package model

// ItemType はメディアカタログ項目の種別を表す。
type ItemType string

const (
	// ItemTypeGroup はグループ（講座群）を示す。
	ItemTypeGroup ItemType = "GROUP"
	// ItemTypePlaylist はプレイリスト（講座）を示す。
	ItemTypePlaylist ItemType = "PLAYLIST"
	// ItemTypeVideo は単体ビデオを示す。
	ItemTypeVideo ItemType = "VIDEO"
)

// Item はカタログに表示されるトップレベル項目（Group / Playlist / Video）の共通インターフェース。
// 表示リスト内では(種別, ID)の組が一意であることが保証される。
type Item interface {
	// ItemType は項目の種別タグを返す。
	ItemType() ItemType
	// ItemID は項目のIDを返す。IDはフェッチをまたいで安定しており、重複排除のキーとなる。
	ItemID() int64
}

// ContentType はビデオ付随コンテンツの種別を表す。
type ContentType string

const (
	// ContentTypeText はテキストコンテンツを示す。
	ContentTypeText ContentType = "TEXT"
	// ContentTypeImage は画像コンテンツを示す。
	ContentTypeImage ContentType = "IMAGE"
)

// Content はビデオに付随する補助コンテンツ（説明文や資料画像）を表す。
// ちょうど1つのVideoに属する。OrderNumber昇順で表示される（欠損は0扱い）。
type Content struct {
	ID          int64       `json:"id"`
	Type        ContentType `json:"type"`
	TextContent string      `json:"text_content,omitempty"`
	ResourceKey string      `json:"resource_key,omitempty"`
	OrderNumber int         `json:"order_number"`
}

// Video は視聴可能なビデオを表す。
// 同じビデオIDが複数のコンテナ（グループ直下・プレイリスト内・単体）に
// 異なる有効期限で出現しうる（複数の受講権による重複付与）。
type Video struct {
	ID             int64     `json:"id"`
	OrderNumber    int       `json:"order_number"`
	Name           string    `json:"name"`
	URL            string    `json:"url,omitempty"`
	ExpirationDate string    `json:"expiration_date"`
	CoverImageURL  string    `json:"cover_image_url,omitempty"`
	Contents       []Content `json:"contents"`
}

// ItemType はItemインターフェースを実装する。
func (v Video) ItemType() ItemType { return ItemTypeVideo }

// ItemID はItemインターフェースを実装する。
func (v Video) ItemID() int64 { return v.ID }

// Playlist はビデオの順序付きリスト（講座）を表す。
// Videosは常にOrderNumber昇順。
type Playlist struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	ExpirationDate string  `json:"expiration_date"`
	Videos         []Video `json:"videos"`
}

// ItemType はItemインターフェースを実装する。
func (p Playlist) ItemType() ItemType { return ItemTypePlaylist }

// ItemID はItemインターフェースを実装する。
func (p Playlist) ItemID() int64 { return p.ID }

// Group はプレイリストとビデオをまとめた最上位の階層（講座群）を表す。
// PlaylistsはID昇順、VideosはOrderNumber昇順。
type Group struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	ExpirationDate string     `json:"expiration_date"`
	Playlists      []Playlist `json:"playlists"`
	Videos         []Video    `json:"videos"`
}

// ItemType はItemインターフェースを実装する。
func (g Group) ItemType() ItemType { return ItemTypeGroup }

// ItemID はItemインターフェースを実装する。
func (g Group) ItemID() int64 { return g.ID }

// PlaybackInfo はDRMベンダーが発行する短命の再生クレデンシャルを表す。
// ビデオ視聴リクエストごとにバックエンド経由で発行される。
type PlaybackInfo struct {
	VideoID   int64  `json:"video_id"`
	OTP       string `json:"otp"`
	Payload   string `json:"playback_info"`
	ExpiresIn int    `json:"expires_in"` // 秒
}

// TaggedVideo はタグ検索結果のビデオを表す。
// 検索API自体は有効期限を持たないため、ExpirationDateは
// 受講権から構築した有効期限マップで補完される。
type TaggedVideo struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	CoverImageURL  string `json:"cover_image_url,omitempty"`
	ExpirationDate string `json:"expiration_date"`
}
