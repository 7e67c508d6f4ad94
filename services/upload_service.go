package services

import (
	"net/url"
	"strconv"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"
)

const (
	UploadProfile   = "profile"
	UploadThumbnail = "thumbnail"
	UploadVideo     = "video"
)

// UploadSignature is what the client needs for a signed direct upload.
type UploadSignature struct {
	Signature    string `json:"signature"`
	Timestamp    int64  `json:"timestamp"`
	APIKey       string `json:"api_key"`
	CloudName    string `json:"cloud_name"`
	Folder       string `json:"folder"`
	ResourceType string `json:"resource_type"`
}

func uploadFolder(role models.Role, kind string) (string, string, error) {
	switch kind {
	case UploadProfile:
		return "elevate/profiles/" + string(role), "image", nil
	case UploadThumbnail:
		if role == models.RoleTutor {
			return "elevate/courses/thumbnails", "image", nil
		}
	case UploadVideo:
		if role == models.RoleTutor {
			return "elevate/courses/videos", "video", nil
		}
	}
	return "", "", badRequest("Unsupported upload type")
}

// SignUpload signs Cloudinary upload params for the given upload kind.
func SignUpload(role models.Role, kind string, now time.Time) (*UploadSignature, error) {
	folder, resource, err := uploadFolder(role, kind)
	if err != nil {
		return nil, err
	}
	raw := config.Config("CLOUDINARY_URL")
	if raw == "" {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "Uploads are not configured")
	}
	cld, err := cloudinary.NewFromURL(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "init cloudinary")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "parse cloudinary url")
	}
	secret, _ := parsed.User.Password()

	params, err := api.StructToParams(uploader.UploadParams{Folder: folder})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "prepare upload params")
	}
	ts := now.Unix()
	params.Set("timestamp", strconv.FormatInt(ts, 10))
	sig, err := api.SignParameters(params, secret)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "sign upload params")
	}
	return &UploadSignature{
		Signature:    sig,
		Timestamp:    ts,
		APIKey:       cld.Config.Cloud.APIKey,
		CloudName:    cld.Config.Cloud.CloudName,
		Folder:       folder,
		ResourceType: resource,
	}, nil
}
