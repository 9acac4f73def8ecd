// Package seed 写入演示账户、相册和示例图片，可重复执行
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/database/repo/images"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/albums"
	"github.com/anoixa/clone-gallery/internal/auth"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/internal/repositories"
	imagesvc "github.com/anoixa/clone-gallery/internal/services/image"
	"github.com/anoixa/clone-gallery/utils"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultPassword 演示账户默认密码
const DefaultPassword = "gallery-demo"

// Account 演示账户
type Account struct {
	Username string
	Name     string
	Role     models.Role
}

// Sample 示例图片
type Sample struct {
	Title   string
	Caption string
	Privacy models.Privacy
	Tags    []string
	From    color.RGBA
	To      color.RGBA
}

var Accounts = []Account{
	{Username: "demo-admin", Name: "Demo Admin", Role: models.RoleAdmin},
	{Username: "demo-editor", Name: "Demo Editor", Role: models.RoleEditor},
	{Username: "demo-visitor", Name: "Demo Visitor", Role: models.RoleVisitor},
}

var Samples = []Sample{
	{Title: "Sunrise", Caption: "Warm morning gradient", Privacy: models.PrivacyPublic, Tags: []string{"nature", "sky"},
		From: color.RGBA{R: 255, G: 183, B: 77, A: 255}, To: color.RGBA{R: 229, G: 57, B: 53, A: 255}},
	{Title: "Ocean", Caption: "Deep blue", Privacy: models.PrivacyPublic, Tags: []string{"nature", "water"},
		From: color.RGBA{R: 129, G: 212, B: 250, A: 255}, To: color.RGBA{R: 13, G: 71, B: 161, A: 255}},
	{Title: "Forest", Caption: "Green canopy", Privacy: models.PrivacyPublic, Tags: []string{"nature", "green"},
		From: color.RGBA{R: 165, G: 214, B: 167, A: 255}, To: color.RGBA{R: 27, G: 94, B: 32, A: 255}},
	{Title: "Night city", Caption: "Neon skyline", Privacy: models.PrivacyPublic, Tags: []string{"city", "night"},
		From: color.RGBA{R: 49, G: 27, B: 146, A: 255}, To: color.RGBA{R: 236, G: 64, B: 122, A: 255}},
	{Title: "Draft", Caption: "Work in progress", Privacy: models.PrivacyPrivate, Tags: []string{"draft"},
		From: color.RGBA{R: 224, G: 224, B: 224, A: 255}, To: color.RGBA{R: 97, G: 97, B: 97, A: 255}},
}

// Options 种子数据选项
type Options struct {
	Password string
	// Width/Height 示例图片尺寸
	Width  int
	Height int
}

// Result 本次写入的数量，已存在的数据不计入
type Result struct {
	Users  int `json:"users"`
	Images int `json:"images"`
	Albums int `json:"albums"`
}

// Seeder 通过业务服务写入数据，图片走当前存储后端
type Seeder struct {
	repos       *repositories.Repositories
	credentials *auth.CredentialService
	uploader    *imagesvc.UploadService
	albums      *albums.Service
}

func New(repos *repositories.Repositories, credentials *auth.CredentialService, uploader *imagesvc.UploadService, albumSvc *albums.Service) *Seeder {
	return &Seeder{repos: repos, credentials: credentials, uploader: uploader, albums: albumSvc}
}

// Run 写入演示数据；账户已存在时跳过，编辑账户已有图片时不再生成示例图片
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 640, 400
	}

	result := &Result{}
	users := make(map[models.Role]*models.User, len(Accounts))
	for _, a := range Accounts {
		user, created, err := s.ensureUser(ctx, a, opts.Password)
		if err != nil {
			return result, err
		}
		if created {
			result.Users++
		}
		users[a.Role] = user
	}

	editor := users[models.RoleEditor]
	requester := &access.Requester{ID: editor.ID, Role: editor.Role}

	_, existing, err := s.repos.Images.List(ctx, images.ListQuery{AllPrivate: true, UploaderID: editor.ID, Limit: 1})
	if err != nil {
		return result, err
	}
	if existing > 0 {
		utils.Log.Infof("[Seed] %s already has %d images, skipping samples", editor.Username, existing)
		return result, nil
	}

	uploaded := make([]*models.Image, 0, len(Samples))
	for _, sample := range Samples {
		data, err := Render(sample, opts.Width, opts.Height)
		if err != nil {
			return result, err
		}
		img, err := s.uploader.Upload(ctx, requester, imagesvc.UploadInput{
			Filename:    strings.ReplaceAll(strings.ToLower(sample.Title), " ", "-") + ".png",
			ContentType: "image/png",
			Data:        data,
			Title:       sample.Title,
			Caption:     sample.Caption,
			AltText:     sample.Caption,
			Privacy:     sample.Privacy,
			Tags:        sample.Tags,
		})
		if err != nil {
			return result, fmt.Errorf("seed image %q: %w", sample.Title, err)
		}
		uploaded = append(uploaded, img)
		result.Images++
	}

	album, err := s.albums.Create(ctx, requester, albums.CreateInput{
		Title:       "Highlights",
		Description: "Sample album",
		Privacy:     models.PrivacyPublic,
	})
	if err != nil {
		return result, err
	}
	result.Albums++
	for _, img := range uploaded {
		if img.Privacy != models.PrivacyPublic {
			continue
		}
		if err := s.albums.AddImage(ctx, requester, album.ID, img.ID); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *Seeder) ensureUser(ctx context.Context, a Account, password string) (*models.User, bool, error) {
	user, err := s.repos.Accounts.GetByIdentifier(ctx, a.Username)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, false, err
	}
	user, err = s.credentials.Register(ctx, auth.RegisterInput{
		Email:    a.Username + "@clonegallery.local",
		Username: a.Username,
		Name:     a.Name,
		Password: password,
		Role:     a.Role,
	})
	if err != nil {
		return nil, false, fmt.Errorf("seed user %s: %w", a.Username, err)
	}
	utils.Log.Infof("[Seed] Created %s account %s", a.Role, a.Username)
	return user, true, nil
}

// Render 生成带标题的渐变 PNG
func Render(sample Sample, width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		t := float64(y) / float64(max(height-1, 1))
		c := color.RGBA{
			R: lerp(sample.From.R, sample.To.R, t),
			G: lerp(sample.From.G, sample.To.G, t),
			B: lerp(sample.From.B, sample.To.B, t),
			A: 255,
		}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(16, height-16),
	}
	d.DrawString(sample.Title)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
