package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
)

// Categories

func (g *Gateway) createCategory(c *gin.Context) {
	image, closeImage, ok := g.formImage(c, "image")
	if !ok {
		return
	}
	defer closeImage()

	category, err := g.svc.Catalog.CreateCategory(c.Request.Context(), c.PostForm("categoryName"), image)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Category created", category)
}

func (g *Gateway) listCategories(c *gin.Context) {
	categories, err := g.svc.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Categories", categories)
}

func (g *Gateway) getCategory(c *gin.Context) {
	category, err := g.svc.Catalog.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Category", category)
}

func (g *Gateway) updateCategory(c *gin.Context) {
	image, closeImage, ok := g.formImage(c, "image")
	if !ok {
		return
	}
	defer closeImage()

	var name *string
	if v, present := c.GetPostForm("categoryName"); present {
		name = &v
	}
	category, err := g.svc.Catalog.UpdateCategory(c.Request.Context(), c.Param("id"), name, image)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Category updated", category)
}

func (g *Gateway) removeCategoryImage(c *gin.Context) {
	category, err := g.svc.Catalog.RemoveCategoryImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Category image removed", category)
}

func (g *Gateway) deleteCategory(c *gin.Context) {
	res, err := g.svc.Catalog.DeleteCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	if res.Partial() {
		respond(c, http.StatusOK, "Category partially deleted: products referenced by orders were kept", res)
		return
	}
	respond(c, http.StatusOK, "Category and all related data deleted successfully", res)
}

// Subcategories

type subcategoryRequest struct {
	CategoryID      string `json:"categoryId"`
	SubcategoryName string `json:"subcategoryName"`
}

type subcategoryUpdate struct {
	CategoryID      *string `json:"categoryId"`
	SubcategoryName *string `json:"subcategoryName"`
}

func (g *Gateway) createSubcategory(c *gin.Context) {
	var req subcategoryRequest
	if !g.bind(c, &req) {
		return
	}
	sub, err := g.svc.Catalog.CreateSubcategory(c.Request.Context(), req.CategoryID, req.SubcategoryName)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Subcategory created", sub)
}

// listSubcategories serves both the full list and the per-category list.
func (g *Gateway) listSubcategories(c *gin.Context) {
	subs, err := g.svc.Catalog.ListSubcategories(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Subcategories", subs)
}

func (g *Gateway) updateSubcategory(c *gin.Context) {
	var req subcategoryUpdate
	if !g.bind(c, &req) {
		return
	}
	sub, err := g.svc.Catalog.UpdateSubcategory(c.Request.Context(), c.Param("id"), req.SubcategoryName, req.CategoryID)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Subcategory updated", sub)
}

func (g *Gateway) deleteSubcategory(c *gin.Context) {
	res, err := g.svc.Catalog.DeleteSubcategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	if res.Partial() {
		respond(c, http.StatusOK, "Subcategory partially deleted: products referenced by orders were kept", res)
		return
	}
	respond(c, http.StatusOK, "Subcategory deleted successfully", res)
}

// Products

func (g *Gateway) createProduct(c *gin.Context) {
	var req service.ProductRequest
	if !g.bind(c, &req) {
		return
	}
	product, err := g.svc.Catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product created", product)
}

func (g *Gateway) updateProduct(c *gin.Context) {
	var req service.ProductRequest
	if !g.bind(c, &req) {
		return
	}
	product, err := g.svc.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product updated", product)
}

func (g *Gateway) setProductImage(c *gin.Context) {
	image, closeImage, ok := g.formImage(c, "image")
	if !ok {
		return
	}
	defer closeImage()

	product, err := g.svc.Catalog.SetProductImage(c.Request.Context(), c.PostForm("productId"), c.PostForm("imageField"), image)
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product image updated", product)
}

func (g *Gateway) listProducts(c *gin.Context) {
	products, err := g.svc.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Products", products)
}

func (g *Gateway) getProduct(c *gin.Context) {
	product, err := g.svc.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product", product)
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	if err := g.svc.Catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product deleted", nil)
}

func (g *Gateway) productsByCategory(c *gin.Context) {
	products, err := g.svc.Catalog.ListProductsByCategory(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Products", products)
}

func (g *Gateway) groupByCategory(c *gin.Context) {
	groups, err := g.svc.Catalog.GroupByCategory(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Products by category", groups)
}

func (g *Gateway) searchProducts(c *gin.Context) {
	hits, err := g.svc.Catalog.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		g.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Search results", hits)
}
