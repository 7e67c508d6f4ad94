package handlers

import (
	"time"

	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
)

// UploadSignature signs a direct Cloudinary upload of the kind named in the
// path (profile, thumbnail or video).
func UploadSignature(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sig, err := services.SignUpload(role, c.Params("kind"), time.Now())
		if err != nil {
			return err
		}
		return utils.OK(c, "Upload signed", sig)
	}
}
