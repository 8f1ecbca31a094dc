package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/majdjoubi/halqa/internal/helpers"
	"github.com/majdjoubi/halqa/internal/models"
	"github.com/majdjoubi/halqa/internal/services"
)

// CreateDonation creates a payment intent for a one-off donation. Donations
// are open to anonymous callers; a signed-in donor is attached when present.
func CreateDonation(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Amount   int64  `json:"amount" binding:"required,min=1"`
			Currency string `json:"currency" binding:"required,len=3"`
			Message  string `json:"message"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		donation := &models.Donation{
			Amount:   req.Amount,
			Currency: req.Currency,
			Message:  req.Message,
		}
		if claims, exists := c.Get("user"); exists {
			if principal, ok := claims.(*helpers.Principal); ok {
				donation.DonorID = principal.UserID
			}
		}

		recorded, clientSecret, err := ps.CreateDonationIntent(c.Request.Context(), donation)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{
			"donation":      recorded,
			"client_secret": clientSecret,
		}, "donation intent created"))
	}
}

func ListMyDonations(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok {
			return
		}

		donations, err := ps.ListDonationsByDonor(c.Request.Context(), principal.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(donations, ""))
	}
}

func CreateSubscription(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok {
			return
		}

		var req struct {
			PriceID string `json:"price_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("price_id is required"))
			return
		}

		subscriptionID, clientSecret, err := ps.CreateSubscription(c.Request.Context(), principal.Email, req.PriceID)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{
			"subscription_id": subscriptionID,
			"client_secret":   clientSecret,
		}, "subscription created"))
	}
}

func CancelSubscription(ps *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := principalFrom(c); !ok {
			return
		}

		id := c.Param("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("subscription ID is required"))
			return
		}

		if err := ps.CancelSubscription(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil, "subscription cancelled"))
	}
}
