package news

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/mediaman/internal/model"
	"github.com/hitoshi/mediaman/internal/repository"
	"github.com/hitoshi/mediaman/internal/security"
)

// ParsedEntry はフィードから解析されたお知らせ記事を表す。
type ParsedEntry struct {
	GuidOrID    string
	Title       string
	Link        string
	Body        string
	PublishedAt *time.Time
}

// Service はお知らせフィードの取得・保存・一覧取得を提供する。
type Service struct {
	announcementRepo repository.AnnouncementRepository
	sanitizer        security.ContentSanitizerService
	detector         *FeedDetector
	ssrfGuard        SSRFValidator
	logger           *slog.Logger
	siteURL          string
	timeout          time.Duration
	maxBodySize      int64
	nowFn            func() time.Time
}

// NewService はServiceを生成する。
// siteURLが空の場合、フェッチ系の操作は何もしない。
func NewService(
	announcementRepo repository.AnnouncementRepository,
	sanitizer security.ContentSanitizerService,
	ssrfGuard SSRFValidator,
	logger *slog.Logger,
	siteURL string,
	timeout time.Duration,
) *Service {
	return &Service{
		announcementRepo: announcementRepo,
		sanitizer:        sanitizer,
		detector:         NewFeedDetector(ssrfGuard),
		ssrfGuard:        ssrfGuard,
		logger:           logger,
		siteURL:          siteURL,
		timeout:          timeout,
		maxBodySize:      5 * 1024 * 1024,
		nowFn:            time.Now,
	}
}

// ListAnnouncements はお知らせを新しい順に最大limit件返す。
func (s *Service) ListAnnouncements(ctx context.Context, limit int) ([]*model.Announcement, error) {
	if limit <= 0 {
		limit = 50
	}

	announcements, err := s.announcementRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}

	return announcements, nil
}

// FetchOnce はお知らせフィードを1回取得して保存し、UPSERTした件数を返す。
// サイトURL未設定の場合は何もせず0を返す。
func (s *Service) FetchOnce(ctx context.Context) (int, error) {
	if s.siteURL == "" {
		return 0, nil
	}

	feedURL, err := s.detector.DetectFeedURL(ctx, s.siteURL)
	if err != nil {
		return 0, fmt.Errorf("failed to detect news feed: %w", err)
	}

	entries, err := s.fetchEntries(ctx, feedURL)
	if err != nil {
		return 0, err
	}

	inserted, updated, err := s.upsertEntries(ctx, entries)
	if err != nil {
		return inserted + updated, err
	}

	s.logger.Info("お知らせフィードの取得が完了しました",
		slog.String("feed_url", feedURL),
		slog.Int("entries", len(entries)),
		slog.Int("inserted", inserted),
		slog.Int("updated", updated),
	)

	return inserted + updated, nil
}

// fetchEntries はフィードをHTTP取得してgofeedでパースする。
func (s *Service) fetchEntries(ctx context.Context, feedURL string) ([]ParsedEntry, error) {
	if err := s.ssrfGuard.ValidateURL(feedURL); err != nil {
		return nil, fmt.Errorf("news feed URL rejected: %w", err)
	}

	client := s.ssrfGuard.NewSafeClient(s.timeout, s.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("User-Agent", "Mediaman/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read news feed body: %w", err)
	}

	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	return convertFeedItems(parsedFeed.Items), nil
}

// convertFeedItems はgofeedの記事をParsedEntryに変換する。
func convertFeedItems(items []*gofeed.Item) []ParsedEntry {
	entries := make([]ParsedEntry, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		entry := ParsedEntry{
			GuidOrID: item.GUID,
			Title:    item.Title,
			Link:     item.Link,
			Body:     item.Content,
		}

		// Contentが空の場合はDescriptionを使用
		if entry.Body == "" {
			entry.Body = item.Description
		}

		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			entry.PublishedAt = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			entry.PublishedAt = &t
		}

		entries = append(entries, entry)
	}

	return entries
}

// upsertEntries は解析済み記事をUPSERTする。
// 同一性判定: guid_or_id > content_hash の2段階。
// 本文はサニタイズしてから保存する。
func (s *Service) upsertEntries(ctx context.Context, entries []ParsedEntry) (inserted int, updated int, err error) {
	if len(entries) == 0 {
		return 0, 0, nil
	}

	now := s.nowFn()

	for _, entry := range entries {
		sanitizedBody := s.sanitizer.Sanitize(entry.Body)
		contentHash := computeContentHash(entry.Title, entry.PublishedAt, sanitizedBody)

		existing, findErr := s.findExisting(ctx, entry, contentHash)
		if findErr != nil {
			return inserted, updated, fmt.Errorf("お知らせの同一性判定に失敗: %w", findErr)
		}

		if existing != nil {
			existing.GuidOrID = entry.GuidOrID
			existing.Title = entry.Title
			existing.Link = entry.Link
			existing.Body = sanitizedBody
			existing.ContentHash = contentHash
			existing.FetchedAt = now
			existing.UpdatedAt = now
			if entry.PublishedAt != nil {
				existing.PublishedAt = entry.PublishedAt
			}

			if updateErr := s.announcementRepo.Update(ctx, existing); updateErr != nil {
				return inserted, updated, fmt.Errorf("お知らせの更新に失敗: %w", updateErr)
			}
			updated++
		} else {
			a := &model.Announcement{
				ID:          uuid.New().String(),
				GuidOrID:    entry.GuidOrID,
				Title:       entry.Title,
				Link:        entry.Link,
				Body:        sanitizedBody,
				ContentHash: contentHash,
				PublishedAt: entry.PublishedAt,
				FetchedAt:   now,
				CreatedAt:   now,
				UpdatedAt:   now,
			}

			if createErr := s.announcementRepo.Create(ctx, a); createErr != nil {
				return inserted, updated, fmt.Errorf("お知らせの挿入に失敗: %w", createErr)
			}
			inserted++
		}
	}

	return inserted, updated, nil
}

// findExisting は2段階の同一性判定で既存お知らせを検索する。
// 優先順位: guid_or_id > content_hash
func (s *Service) findExisting(ctx context.Context, entry ParsedEntry, contentHash string) (*model.Announcement, error) {
	if entry.GuidOrID != "" {
		a, err := s.announcementRepo.FindByGUID(ctx, entry.GuidOrID)
		if err != nil {
			return nil, err
		}
		if a != nil {
			return a, nil
		}
	}

	if contentHash != "" {
		a, err := s.announcementRepo.FindByContentHash(ctx, contentHash)
		if err != nil {
			return nil, err
		}
		if a != nil {
			return a, nil
		}
	}

	return nil, nil
}

// computeContentHash はtitle + published + bodyのSHA-256ハッシュを計算する。
// GUIDを持たないフィードの同一性判定に使用される。
func computeContentHash(title string, publishedAt *time.Time, body string) string {
	pubStr := ""
	if publishedAt != nil {
		pubStr = publishedAt.UTC().Format(time.RFC3339)
	}
	data := fmt.Sprintf("%s|%s|%s", title, pubStr, body)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
