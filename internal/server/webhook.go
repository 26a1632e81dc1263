package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dkovalov/taskboard/internal/bot"
	"github.com/gin-gonic/gin"
)

// handleWebhook decodes an inbound Telegram update and hands it to the
// bot router. The router absorbs every processing failure, so the
// endpoint reports success for any well-formed payload; a failed update
// must not make Telegram redeliver it forever.
func handleWebhook(router *bot.Router, out io.Writer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd bot.Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "malformed update payload",
			})
			return
		}

		if out != nil {
			fmt.Fprintf(out, "server: webhook: update %d (message=%t callback=%t)\n",
				upd.UpdateID, upd.Message != nil, upd.CallbackQuery != nil)
		}

		router.Handle(c.Request.Context(), upd)
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

// handleSetWebhook registers the given URL (or the configured one) with
// the Telegram API.
func handleSetWebhook(client *bot.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			respond(c, http.StatusInternalServerError, false, "Telegram client not configured", nil)
			return
		}
		var body struct {
			URL string `json:"url"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.URL == "" {
			respondValidation(c, map[string]string{"url": "url is required"})
			return
		}
		if err := client.SetWebhook(contextOf(c), body.URL); err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to set webhook", nil)
			return
		}
		respond(c, http.StatusOK, true, "Webhook set successfully", nil)
	}
}

// handleWebhookInfo reports the current webhook registration.
func handleWebhookInfo(client *bot.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			respond(c, http.StatusInternalServerError, false, "Telegram client not configured", nil)
			return
		}
		info, err := client.GetWebhookInfo(contextOf(c))
		if err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to get webhook info", nil)
			return
		}
		respond(c, http.StatusOK, true, "", info)
	}
}

// handleDeleteWebhook removes the webhook registration.
func handleDeleteWebhook(client *bot.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			respond(c, http.StatusInternalServerError, false, "Telegram client not configured", nil)
			return
		}
		if err := client.DeleteWebhook(contextOf(c)); err != nil {
			respond(c, http.StatusInternalServerError, false, "Failed to delete webhook", nil)
			return
		}
		respond(c, http.StatusOK, true, "Webhook deleted", nil)
	}
}

// contextOf returns the request context.
func contextOf(c *gin.Context) context.Context {
	return c.Request.Context()
}
