package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
)

// Settings

func (g *Gateway) storeSettings(c *gin.Context) {
	setting, err := g.svc.Content.StoreSettings(c.Request.Context(), c.Param("storeId"))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Settings", setting)
}

func (g *Gateway) getSettings(c *gin.Context) {
	setting, err := g.svc.Content.AdminSettings(c.Request.Context(), subject(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Settings", setting)
}

func (g *Gateway) saveSettings(c *gin.Context) {
	var req service.SettingsInput
	if !g.bind(c, &req) {
		return
	}
	setting, err := g.svc.Content.SaveSettings(c.Request.Context(), subject(c), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Settings saved", setting)
}

func (g *Gateway) saveDelivery(c *gin.Context) {
	var req service.DeliveryInput
	if !g.bind(c, &req) {
		return
	}
	setting, err := g.svc.Content.SaveDelivery(c.Request.Context(), subject(c), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Delivery settings saved", setting)
}

// Banners

func (g *Gateway) addBanner(c *gin.Context) {
	image, closeImage, ok := g.formImage(c, "image")
	if !ok {
		return
	}
	defer closeImage()

	banner, err := g.svc.Content.AddBanner(c.Request.Context(), image)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Banner added", banner)
}

func (g *Gateway) listBanners(c *gin.Context) {
	banners, err := g.svc.Content.ListBanners(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Banners", banners)
}

func (g *Gateway) deleteBanner(c *gin.Context) {
	if err := g.svc.Content.DeleteBanner(c.Request.Context(), c.Param("id")); err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Banner deleted", nil)
}

// Customers

func (g *Gateway) registerCustomer(c *gin.Context) {
	var req service.CustomerInput
	if !g.bind(c, &req) {
		return
	}
	customer, err := g.svc.Customers.Register(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Customer registered", customer)
}

func (g *Gateway) listCustomers(c *gin.Context) {
	customers, err := g.svc.Customers.List(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Customers", customers)
}

func (g *Gateway) getCustomer(c *gin.Context) {
	customer, err := g.svc.Customers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Customer", customer)
}

func (g *Gateway) updateCustomer(c *gin.Context) {
	var req service.CustomerInput
	if !g.bind(c, &req) {
		return
	}
	customer, err := g.svc.Customers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Customer updated", customer)
}

func (g *Gateway) deleteCustomer(c *gin.Context) {
	if err := g.svc.Customers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Customer deleted", nil)
}
