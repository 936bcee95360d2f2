package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/recipes-server/internal/api"
	"github.com/listenupapp/recipes-server/internal/config"
	"github.com/listenupapp/recipes-server/internal/logger"
	"github.com/listenupapp/recipes-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storages := do.MustInvoke[*ImageStorages](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Admin:      do.MustInvoke[*service.AdminService](i),
		Tag:        do.MustInvoke[*service.TagService](i),
		Ingredient: do.MustInvoke[*service.IngredientService](i),
		Recipe:     do.MustInvoke[*service.RecipeService](i),
		Search:     do.MustInvoke[*service.SearchService](i),
	}

	storage := &api.StorageServices{
		RecipeImages: storages.RecipeImages,
	}

	handler := api.NewServer(storeHandle.Store, services, storage, api.Options{
		Name:               cfg.Server.Name,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AuthRateLimit:      cfg.Auth.RateLimitPerMinute,
		AuthRateBurst:      cfg.Auth.RateLimitBurst,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
