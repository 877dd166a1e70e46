package service

import "github.com/noah-isme/consultancy-crm-api/internal/models"

// routingPolicy lists the roles whose gated mutations execute immediately.
// Every role absent from the table is deferred to an approval request.
var routingPolicy = map[models.UserRole]models.MutationRoute{
	models.RoleDevAdmin:     models.RouteDirect,
	models.RoleCompanyAdmin: models.RouteDirect,
}

// Route decides how a gated delete or update by role is carried out.
// The decision depends on the role only, never on the entity or the action.
func Route(role models.UserRole) models.MutationRoute {
	if route, ok := routingPolicy[role]; ok {
		return route
	}
	return models.RouteDeferred
}
