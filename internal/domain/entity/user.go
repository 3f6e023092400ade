package entity

// Roles válidos en el claim "role" del token. La gestión de usuarios vive fuera de este servicio;
// aquí solo importa el rol con el que llega cada petición.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// ValidRole indica si r es un rol reconocido.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleBodeguero, RoleVendedor:
		return true
	}
	return false
}
