package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html><head><style>
body{font-family:Georgia,serif;text-align:center;padding:60px;border:12px double #4f46e5}
h1{font-size:42px;margin-bottom:0}
.name{font-size:34px;margin:30px 0;border-bottom:1px solid #999;display:inline-block;padding:0 40px}
.meta{color:#555;margin-top:40px}
</style></head><body>
<h1>Certificate of Completion</h1>
<p>This certifies that</p>
<div class="name">{{.RecipientName}}</div>
<p>has successfully completed</p>
<h2>{{.CourseTitle}}</h2>
<p>taught by {{.TutorName}}</p>
<p class="meta">Issued {{.IssuedOn}} &middot; Certificate {{.Number}}</p>
</body></html>`))

func certLog() *zap.Logger { return logger.Module("certificates") }

// IssueCertificate records the certificate for a completed course. Issuing is
// idempotent per user and course. The PDF is rendered and uploaded in the
// background when Cloudinary is configured.
func IssueCertificate(ctx context.Context, userID uuid.UUID, course *models.Course) (*models.Certificate, error) {
	var existing models.Certificate
	err := db(ctx).Where("user_id = ? AND course_id = ?", userID, course.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrap(err, "load certificate")
	}

	var user models.User
	if err := db(ctx).Select("id", "first_name", "last_name").First(&user, "id = ?", userID).Error; err != nil {
		return nil, lookup(err, "User")
	}
	var tutor models.Tutor
	if err := db(ctx).Unscoped().Select("id", "first_name", "last_name").First(&tutor, "id = ?", course.TutorID).Error; err != nil {
		return nil, lookup(err, "Tutor")
	}

	cert := models.Certificate{
		UserID:        userID,
		CourseID:      course.ID,
		Number:        utils.CertificateNumber(),
		RecipientName: user.FullName(),
		TutorName:     tutor.FullName(),
		CourseTitle:   course.Title,
		IssuedAt:      time.Now(),
	}
	if err := db(ctx).Create(&cert).Error; err != nil {
		return nil, wrap(err, "create certificate")
	}
	certLog().Info("certificate issued", zap.String("number", cert.Number), zap.String("user", userID.String()))

	if url := config.Config("CLOUDINARY_URL"); url != "" {
		go publishCertificate(cert, url)
	}
	return &cert, nil
}

func publishCertificate(cert models.Certificate, cloudinaryURL string) {
	log := certLog().With(zap.String("number", cert.Number))

	html, err := renderCertificate(cert)
	if err != nil {
		log.Error("failed to render certificate", zap.Error(err))
		return
	}
	pdf, err := htmlToPDF(html)
	if err != nil {
		log.Error("failed to generate PDF", zap.Error(err))
		return
	}
	url, err := uploadCertificate(pdf, cert, cloudinaryURL)
	if err != nil {
		log.Error("failed to upload certificate", zap.Error(err))
		return
	}
	if err := db(context.Background()).Model(&models.Certificate{}).Where("id = ?", cert.ID).Update("url", url).Error; err != nil {
		log.Error("failed to store certificate url", zap.Error(err))
		return
	}
	log.Info("certificate published", zap.String("url", url))
}

func renderCertificate(cert models.Certificate) (string, error) {
	data := struct {
		RecipientName string
		TutorName     string
		CourseTitle   string
		IssuedOn      string
		Number        string
	}{
		RecipientName: cert.RecipientName,
		TutorName:     cert.TutorName,
		CourseTitle:   cert.CourseTitle,
		IssuedOn:      cert.IssuedAt.Format("January 2, 2006"),
		Number:        cert.Number,
	}
	var out bytes.Buffer
	if err := certificateTemplate.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}

func htmlToPDF(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
	defer cancelTimeout()

	var pdf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).WithLandscape(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	return pdf, err
}

func uploadCertificate(pdf []byte, cert models.Certificate, cloudinaryURL string) (string, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := cld.Upload.Upload(ctx, bytes.NewReader(pdf), uploader.UploadParams{
		PublicID:     fmt.Sprintf("%s_%s", cert.UserID, cert.Number),
		Folder:       "elevate/certificates",
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}

func ListCertificates(ctx context.Context, userID uuid.UUID) ([]models.Certificate, error) {
	out := []models.Certificate{}
	err := db(ctx).Where("user_id = ?", userID).Order("issued_at DESC").Find(&out).Error
	return out, wrap(err, "list certificates")
}
