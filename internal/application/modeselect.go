package application

import "github.com/ericfisherdev/autoreview/internal/domain/model"

// SelectMode decides how a review request is generated. It is a pure
// function of credential presence with no side effects, evaluated once per
// request so credential rotation takes effect without a restart when the
// surrounding process supports it.
func SelectMode(hasProviderCredentials bool) model.ReviewMode {
	if hasProviderCredentials {
		return model.ModeOnline
	}
	return model.ModeOffline
}
