package catalog

import (
	"sort"

	"github.com/hitoshi/mediaman/internal/model"
)

// VideoSource はトップレベルvideosリストから索引した正準ビデオメタデータ。
// コンテナ内に出現する同一IDビデオのurl・カバー画像・付随コンテンツは、
// この索引のエントリで上書きされる。
type VideoSource struct {
	URL           string
	CoverImageURL string
	Contents      []model.Content
}

// BuildVideoMap はトップレベルvideosリストからビデオID→正準メタデータの索引を構築する。
// 同一IDが複数回出現した場合は後勝ち（このステージでは有効期限を比較しない。
// ここで捕捉するのはアクセス期間ではなく正準メタデータのみ）。
// 不正なエントリもエラーにせず、空フィールドのまま登録される。
func BuildVideoMap(videos []VideoEnvelope) map[int64]VideoSource {
	vm := make(map[int64]VideoSource, len(videos))
	for _, env := range videos {
		vm[env.Content.ID] = VideoSource{
			URL:           env.Content.URL,
			CoverImageURL: env.Content.CoverImgURL,
			Contents:      transformContents(env.Content.Contents),
		}
	}
	return vm
}

// transformContents はワイヤ形式の付随コンテンツをorderNumber昇順の
// ドメインモデルに変換する。欠損orderNumberは0として扱う。
func transformContents(raw []RawContent) []model.Content {
	contents := make([]model.Content, 0, len(raw))
	for _, rc := range raw {
		contents = append(contents, model.Content{
			ID:          rc.ID,
			Type:        model.ContentType(rc.Type),
			TextContent: rc.TextContent,
			ResourceKey: rc.ResourceKey,
			OrderNumber: orderOrZero(rc.OrderNumber),
		})
	}
	sort.SliceStable(contents, func(i, j int) bool {
		return contents[i].OrderNumber < contents[j].OrderNumber
	})
	return contents
}
