package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
)

// ownsBody rejects requests whose body names a different user than the
// token. Mobile order routes carry the userId in the body.
func ownsBody(c *gin.Context, userID string) bool {
	if userID != subject(c).Hex() {
		abort(c, http.StatusForbidden, "userId does not match the signed-in user")
		return false
	}
	return true
}

func (g *Gateway) createPaymentIntent(c *gin.Context) {
	var req service.IntentInput
	if !g.bind(c, &req) {
		return
	}
	if req.UserID != "" && !ownsBody(c, req.UserID) {
		return
	}
	intent, err := g.svc.Payments.CreateIntent(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Order created", gin.H{
		"order": intent,
		"key":   g.config.Razorpay.KeyID,
	})
}

func (g *Gateway) verifyPayment(c *gin.Context) {
	var req service.VerifyInput
	if !g.bind(c, &req) {
		return
	}
	if req.UserID != "" && !ownsBody(c, req.UserID) {
		return
	}
	res, err := g.svc.Payments.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	if !res.Created {
		respond(c, http.StatusOK, "Payment already processed", res.Order)
		return
	}
	respond(c, http.StatusCreated, "Payment verified and order placed", res.Order)
}

func (g *Gateway) placeCODOrder(c *gin.Context) {
	var req service.CODInput
	if !g.bind(c, &req) {
		return
	}
	if req.UserID != "" && !ownsBody(c, req.UserID) {
		return
	}
	order, err := g.svc.Orders.PlaceCOD(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Order placed", order)
}

func (g *Gateway) myOrders(c *gin.Context) {
	orders, err := g.svc.Orders.MyOrders(c.Request.Context(), subject(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Orders", orders)
}

type updateStatusRequest struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if !g.bind(c, &req) {
		return
	}
	order, sent, err := g.svc.Orders.UpdateStatus(c.Request.Context(), req.OrderID, req.OrderStatus)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated", gin.H{
		"order":         order,
		"notifications": sent,
	})
}

func (g *Gateway) listOrders(c *gin.Context) {
	var q service.OrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}
	orders, err := g.svc.Orders.ListOrders(c.Request.Context(), q)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Orders", orders)
}

func (g *Gateway) getOrder(c *gin.Context) {
	order, err := g.svc.Orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Order", order)
}

type trackingRequest struct {
	TrackingID  string `json:"trackingId"`
	TrackingURL string `json:"trackingUrl"`
}

func (g *Gateway) updateTracking(c *gin.Context) {
	var req trackingRequest
	if !g.bind(c, &req) {
		return
	}
	order, err := g.svc.Orders.UpdateTracking(c.Request.Context(), c.Param("id"), req.TrackingID, req.TrackingURL)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Tracking updated", order)
}
