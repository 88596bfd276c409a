package post

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nollidnosnhoj/ggpx/internal/config"
	"github.com/nollidnosnhoj/ggpx/internal/domain/game"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/observability"
	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

const (
	FieldContentType = "Content-Type"
	FieldUserID      = "User-Id"

	uploadIDAttempts = 3
	probeConcurrency = 4
)

var allowedMIMEs = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

// Service orchestrates upload authorization, post creation and retrieval.
type Service struct {
	cfg       *config.Config
	tx        Transactor
	posts     Repository
	uploads   UploadRepository
	users     UserRepository
	games     GameResolver
	gameStore game.Repository
	storage   Storage
	log       zerolog.Logger

	newID func() (string, error)
	now   func() time.Time
}

func NewService(
	cfg *config.Config,
	tx Transactor,
	posts Repository,
	uploads UploadRepository,
	users UserRepository,
	games GameResolver,
	gameStore game.Repository,
	storage Storage,
	log zerolog.Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		tx:        tx,
		posts:     posts,
		uploads:   uploads,
		users:     users,
		games:     games,
		gameStore: gameStore,
		storage:   storage,
		log:       log.With().Str("component", "post-service").Logger(),
		newID:     func() (string, error) { return gonanoid.New(UploadIDLength) },
		now:       time.Now,
	}
}

// ContentTypeForFileName derives the extension and content type of an
// uploadable image from its file name.
func ContentTypeForFileName(fileName string) (ext string, contentType string, ok bool) {
	ext = strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		return "", "", false
	}
	contentType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return "", "", false
	}
	if _, allowed := allowedMIMEs[contentType]; !allowed {
		return "", "", false
	}
	return ext, contentType, true
}

// RequestUpload records a ledger entry and returns a size-bounded, short-lived
// direct upload authorization for it.
func (s *Service) RequestUpload(ctx context.Context, in RequestUploadInput) (*UploadGrant, error) {
	ext, contentType, ok := ContentTypeForFileName(in.FileName)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unsupported file type for %q", in.FileName), ErrInvalidFileType, "6d0b9f52-3a4e-4c71-8e2f-1b5a7c9d0e34")
	}
	if in.FileSize <= 0 || in.FileSize > MaxFileSize {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("file size must be between 1 and %d bytes", MaxFileSize), ErrInvalidInput, "8e4c2a17-9b3d-4f60-a1c5-2d7e8f9a0b16")
	}

	upload, err := s.recordUpload(ctx, in, ext, contentType)
	if err != nil {
		return nil, err
	}

	presigned, err := s.storage.PresignPost(ctx, upload.Key(), s.cfg.UploadExpiration, in.FileSize, map[string]string{
		FieldContentType: contentType,
		FieldUserID:      in.UserID,
	})
	if err != nil {
		if _, delErr := s.uploads.DeleteByIDs(ctx, []string{upload.ID}); delErr != nil {
			s.log.Warn().Err(delErr).Str("upload_id", upload.ID).Msg("failed to discard ledger entry after presign failure")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to authorize upload")
	}

	s.log.Info().
		Str("upload_id", upload.ID).
		Str("user_id", in.UserID).
		Str("content_type", contentType).
		Int64("file_size", in.FileSize).
		Msg("upload authorized")

	return &UploadGrant{
		ID:     upload.ID,
		URL:    presigned.URL,
		Fields: presigned.Fields,
	}, nil
}

func (s *Service) recordUpload(ctx context.Context, in RequestUploadInput, ext, contentType string) (*Upload, error) {
	var lastErr error
	for attempt := 0; attempt < uploadIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
				"failed to generate upload id", err, "3c7f1e20-4d5a-4b8c-9e6f-0a1b2c3d4e59")
		}
		upload := &Upload{
			ID:            id,
			FileName:      in.FileName,
			FileExtension: ext,
			FileSize:      in.FileSize,
			FileType:      contentType,
			OwnerID:       in.UserID,
			CreatedAt:     s.now().UTC(),
		}
		err = s.uploads.Create(ctx, upload)
		if err == nil {
			return upload, nil
		}
		if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to record upload")
		}
		lastErr = err
		s.log.Warn().Str("upload_id", id).Msg("upload id collision, regenerating")
	}
	return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, lastErr, "failed to allocate upload id")
}

// CreatePosts validates and persists a batch of posts for author. Either every
// post in the batch is created and its upload consumed, or nothing changes.
func (s *Service) CreatePosts(ctx context.Context, author Author, inputs []CreatePostInput) (err error) {
	ctx, span := observability.StartBatchSpan(ctx, author.ID, len(inputs))
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	if strings.TrimSpace(author.ID) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"author is required", nil, "0a9e8d7c-6b5a-4f3e-2d1c-0b9a8f7e6d51")
	}

	batch, err := PrepareBatch(inputs)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			err.Error(), err, "5b1d3f7a-2c4e-4a69-8b0d-6e2f4a8c1d73")
	}

	uploadIDs := make([]string, len(batch))
	gameIDs := make([]int64, len(batch))
	for i, in := range batch {
		uploadIDs[i] = in.UploadID
		gameIDs[i] = in.GameID
	}

	var (
		games   map[int64]*game.Game
		uploads []*Upload
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		resolved, err := s.games.ResolveGames(groupCtx, gameIDs)
		games = resolved
		return err
	})
	group.Go(func() error {
		found, err := s.uploads.FindByIDs(groupCtx, uploadIDs)
		uploads = found
		return err
	})
	if err := group.Wait(); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load batch references")
	}

	uploadsByID := make(map[string]*Upload, len(uploads))
	for _, u := range uploads {
		uploadsByID[u.ID] = u
	}
	for _, in := range batch {
		u, ok := uploadsByID[in.UploadID]
		if !ok || u.OwnerID != author.ID {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("upload %s does not exist", in.UploadID), ErrInvalidUpload, "7c3e5a91-0d2f-4b84-a6c8-3e9f1b5d7a02")
		}
	}

	for _, in := range batch {
		if _, ok := games[in.GameID]; !ok {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("game %d does not exist", in.GameID), ErrInvalidGame, "9e5a7c13-2f4b-4d06-b8e0-5a1b3d7f9c24")
		}
	}

	if s.cfg.VerifyUploadedImages {
		if err := s.verifyStoredImages(ctx, batch, uploadsByID); err != nil {
			return err
		}
	}

	posts := make([]*Post, len(batch))
	for i, in := range batch {
		u := uploadsByID[in.UploadID]
		posts[i] = &Post{
			ID:            in.UploadID,
			Title:         in.Title,
			Caption:       in.Caption,
			ImageWidth:    in.ImageWidth,
			ImageHeight:   in.ImageHeight,
			FileExtension: u.FileExtension,
			FileType:      u.FileType,
			FileSize:      u.FileSize,
			AuthorID:      author.ID,
			GameID:        in.GameID,
		}
	}

	referenced := make([]*game.Game, 0, len(games))
	for _, g := range games {
		referenced = append(referenced, g)
	}

	var created int64
	err = s.tx.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.users.Upsert(txCtx, author); err != nil {
			return err
		}
		if err := s.gameStore.InsertMissing(txCtx, referenced); err != nil {
			return err
		}
		n, err := s.posts.CreateSkippingDuplicates(txCtx, posts)
		if err != nil {
			return err
		}
		created = n
		deleted, err := s.uploads.DeleteByIDs(txCtx, uploadIDs)
		if err != nil {
			return err
		}
		if deleted != int64(len(uploadIDs)) {
			return platformerrors.NewError(txCtx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
				"one or more uploads were consumed by another request", ErrUploadConsumed, "1f7b9d35-4a6c-4e28-8d0a-7b3c5e9f1a46")
		}
		return nil
	})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create posts")
	}

	s.log.Info().
		Str("author_id", author.ID).
		Int("batch_size", len(batch)).
		Int64("created", created).
		Msg("posts created")
	return nil
}

// verifyStoredImages replaces client-reported dimensions with the ones read
// from the stored object and checks the stored type matches the ledger.
func (s *Service) verifyStoredImages(ctx context.Context, batch []CreatePostInput, uploads map[string]*Upload) error {
	infos := make([]*StoredImage, len(batch))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(probeConcurrency)
	for i := range batch {
		group.Go(func() error {
			info, err := s.storage.ProbeImage(groupCtx, uploads[batch[i].UploadID].Key())
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if errors.Is(err, ErrStoredObjectMissing) {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"upload has not been completed", ErrInvalidUpload, "2a8c0e46-5b7d-4f39-9e1b-8c4d6f0a2b57")
		}
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to inspect uploaded images")
	}

	for i := range batch {
		u := uploads[batch[i].UploadID]
		info := infos[i]
		if info.ContentType != u.FileType {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("upload %s is %s, expected %s", u.ID, info.ContentType, u.FileType), ErrInvalidUpload, "3b9d1f57-6c8e-4a40-8f2c-9d5e7a1b3c68")
		}
		if info.Width < MinImageDimension || info.Height < MinImageDimension {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("upload %s is %dx%d, minimum is %dx%d", u.ID, info.Width, info.Height, MinImageDimension, MinImageDimension),
				ErrInvalidInput, "4c0e2a68-7d9f-4b51-9a3d-0e6f8b2c4d79")
		}
		batch[i].ImageWidth = info.Width
		batch[i].ImageHeight = info.Height
	}
	return nil
}

// GetPost returns a post with its author and game projections.
func (s *Service) GetPost(ctx context.Context, id string) (*PostView, error) {
	view, err := s.posts.FindViewByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("post %s not found", id), ErrPostNotFound, "5d1f3b79-8e0a-4c62-a4e5-1f7a9c3d5e80")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load post")
	}
	return view, nil
}
