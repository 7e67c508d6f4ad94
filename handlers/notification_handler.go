package handlers

import (
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/anjiri1684/elevate_lms/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const socketKey = "socket_key"

func LoadNotifications(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := utils.Paginate(c)
		page, err := services.ListNotifications(c.UserContext(), role, middleware.AccountID(c), p)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Notifications fetched",
			"data":    page.Items,
			"unread":  page.Unread,
			"meta":    utils.Meta(p, page.Total),
		})
	}
}

func ReadNotifications(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := middleware.Form[forms.ReadNotifications](c)
		n, err := services.MarkRead(c.UserContext(), role, middleware.AccountID(c), f.IDs, f.All)
		if err != nil {
			return err
		}
		return utils.OK(c, "Notifications marked as read", fiber.Map{"updated": n})
	}
}

// SocketUpgrade runs after RequireRole and hands the identity to ServeWs.
func SocketUpgrade(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals(socketKey, websocket.Key{Role: middleware.CurrentRole(c), ID: middleware.AccountID(c)})
	return c.Next()
}

// ServeWs keeps the connection registered with the hub until the client goes
// away. Inbound frames are ignored.
func ServeWs(conn *websocketcontrib.Conn) {
	key, ok := conn.Locals(socketKey).(websocket.Key)
	if !ok {
		_ = conn.Close()
		return
	}
	log := logger.Module("socket").With(zap.String("role", string(key.Role)), zap.String("id", key.ID.String()))

	client := &websocket.Client{Key: key, Conn: conn}
	if !websocket.Default.Join(client) {
		_ = conn.Close()
		return
	}
	log.Debug("client connected")
	defer func() {
		websocket.Default.Leave(client)
		log.Debug("client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
