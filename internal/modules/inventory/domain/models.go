package domain

import (
	"encoding/json"
	"time"

	realtime "ventasWs/internal/modules/realtime/domain"
)

type Categoria struct {
	IDCategoria   int        `gorm:"primaryKey;column:id_categoria" json:"idCategoria"`
	Descripcion   string     `gorm:"size:50" json:"descripcion"`
	EsActivo      *bool      `json:"esActivo"`
	FechaRegistro *time.Time `json:"fechaRegistro,omitempty"`
}

func (Categoria) TableName() string { return "categoria" }
func (Categoria) EntityType() string { return realtime.EntityCategoria }
func (c *Categoria) PrimaryKey() int { return c.IDCategoria }
func (c *Categoria) SetPrimaryKey(id int) { c.IDCategoria = id }
func (c *Categoria) SetActive(active bool) { c.EsActivo = &active }
func (c *Categoria) ApplyDefaults(now time.Time) { stampDefaults(&c.EsActivo, &c.FechaRegistro, now) }
func (*Categoria) SearchFields() []string { return []string{"descripcion"} }

type Proveedor struct {
	IDProveedor   int        `gorm:"primaryKey;column:id_proveedor" json:"idProveedor"`
	Nombre        string     `gorm:"size:100" json:"nombre"`
	Correo        string     `gorm:"size:100" json:"correo"`
	Telefono      string     `gorm:"size:40" json:"telefono"`
	EsActivo      *bool      `json:"esActivo"`
	FechaRegistro *time.Time `json:"fechaRegistro,omitempty"`
}

func (Proveedor) TableName() string { return "proveedor" }
func (Proveedor) EntityType() string { return realtime.EntityProveedor }
func (p *Proveedor) PrimaryKey() int { return p.IDProveedor }
func (p *Proveedor) SetPrimaryKey(id int) { p.IDProveedor = id }
func (p *Proveedor) SetActive(active bool) { p.EsActivo = &active }
func (p *Proveedor) ApplyDefaults(now time.Time) { stampDefaults(&p.EsActivo, &p.FechaRegistro, now) }
func (*Proveedor) SearchFields() []string { return []string{"nombre", "correo", "telefono"} }

// Producto carries its category and supplier navigations so that change
// events deliver a record the list can render without a second request.
type Producto struct {
	IDProducto    int        `gorm:"primaryKey;column:id_producto" json:"idProducto"`
	Codigo        string     `gorm:"size:50" json:"codigo"`
	Marca         string     `gorm:"size:50" json:"marca"`
	Descripcion   string     `gorm:"size:100" json:"descripcion"`
	IDCategoria   *int       `gorm:"column:id_categoria" json:"idCategoria"`
	IDProveedor   *int       `gorm:"column:id_proveedor" json:"idProveedor"`
	Stock         *int       `json:"stock"`
	Precio        float64    `gorm:"type:decimal(10,2)" json:"precio"`
	EsActivo      *bool      `json:"esActivo"`
	FechaRegistro *time.Time `json:"fechaRegistro,omitempty"`

	Categoria *Categoria `gorm:"foreignKey:IDCategoria;references:IDCategoria" json:"idCategoriaNavigation,omitempty"`
	Proveedor *Proveedor `gorm:"foreignKey:IDProveedor;references:IDProveedor" json:"idProveedorNavigation,omitempty"`
}

func (Producto) TableName() string { return "producto" }
func (Producto) EntityType() string { return realtime.EntityProducto }
func (p *Producto) PrimaryKey() int { return p.IDProducto }
func (p *Producto) SetPrimaryKey(id int) { p.IDProducto = id }
func (p *Producto) SetActive(active bool) { p.EsActivo = &active }
func (p *Producto) ApplyDefaults(now time.Time) { stampDefaults(&p.EsActivo, &p.FechaRegistro, now) }
func (*Producto) SearchFields() []string { return []string{"codigo", "marca", "descripcion"} }

// EntityRol identifies roles. Roles feed the user navigation and are not
// part of the synchronized entity set.
const EntityRol = "Rol"

type Rol struct {
	IDRol         int        `gorm:"primaryKey;column:id_rol" json:"idRol"`
	Descripcion   string     `gorm:"size:50" json:"descripcion"`
	EsActivo      *bool      `json:"esActivo"`
	FechaRegistro *time.Time `json:"fechaRegistro,omitempty"`
}

func (Rol) TableName() string { return "rol" }
func (Rol) EntityType() string { return EntityRol }
func (r *Rol) PrimaryKey() int { return r.IDRol }
func (r *Rol) SetPrimaryKey(id int) { r.IDRol = id }
func (r *Rol) SetActive(active bool) { r.EsActivo = &active }
func (r *Rol) ApplyDefaults(now time.Time) { stampDefaults(&r.EsActivo, &r.FechaRegistro, now) }
func (*Rol) SearchFields() []string { return []string{"descripcion"} }

// Usuario accepts a clave on input but never serializes it.
type Usuario struct {
	IDUsuario     int        `gorm:"primaryKey;column:id_usuario" json:"idUsuario"`
	Nombre        string     `gorm:"size:100" json:"nombre"`
	Correo        string     `gorm:"size:100" json:"correo"`
	Telefono      string     `gorm:"size:40" json:"telefono"`
	IDRol         *int       `gorm:"column:id_rol" json:"idRol"`
	Clave         string     `gorm:"size:150" json:"clave,omitempty"`
	EsActivo      *bool      `json:"esActivo"`
	FechaRegistro *time.Time `json:"fechaRegistro,omitempty"`

	Rol *Rol `gorm:"foreignKey:IDRol;references:IDRol" json:"idRolNavigation,omitempty"`
}

func (Usuario) TableName() string { return "usuario" }
func (Usuario) EntityType() string { return realtime.EntityUsuario }
func (u *Usuario) PrimaryKey() int { return u.IDUsuario }
func (u *Usuario) SetPrimaryKey(id int) { u.IDUsuario = id }
func (u *Usuario) SetActive(active bool) { u.EsActivo = &active }
func (u *Usuario) ApplyDefaults(now time.Time) { stampDefaults(&u.EsActivo, &u.FechaRegistro, now) }
func (*Usuario) SearchFields() []string { return []string{"nombre", "correo", "telefono"} }

func (u Usuario) MarshalJSON() ([]byte, error) {
	type plain Usuario
	out := plain(u)
	out.Clave = ""
	return json.Marshal(out)
}

type Ingreso struct {
	IDIngreso     int        `gorm:"primaryKey;column:id_ingreso" json:"idIngreso"`
	Descripcion   string     `gorm:"size:150" json:"descripcion"`
	Monto         float64    `gorm:"type:decimal(10,2)" json:"monto"`
	TipoMoneda    string     `gorm:"size:10" json:"tipoMoneda"`
	IDUsuario     *int       `gorm:"column:id_usuario" json:"idUsuario"`
	EsActivo      *bool      `json:"esActivo"`
	FechaRegistro *time.Time `json:"fechaRegistro,omitempty"`

	Usuario *Usuario `gorm:"foreignKey:IDUsuario;references:IDUsuario" json:"idUsuarioNavigation,omitempty"`
}

func (Ingreso) TableName() string { return "ingreso" }
func (Ingreso) EntityType() string { return realtime.EntityIngreso }
func (i *Ingreso) PrimaryKey() int { return i.IDIngreso }
func (i *Ingreso) SetPrimaryKey(id int) { i.IDIngreso = id }
func (i *Ingreso) SetActive(active bool) { i.EsActivo = &active }
func (i *Ingreso) Active() bool { return isActive(i.EsActivo) }
func (i *Ingreso) ApplyDefaults(now time.Time) { stampDefaults(&i.EsActivo, &i.FechaRegistro, now) }
func (*Ingreso) SearchFields() []string { return []string{"descripcion", "tipoMoneda"} }

type Egreso struct {
	IDEgreso      int        `gorm:"primaryKey;column:id_egreso" json:"idEgreso"`
	Descripcion   string     `gorm:"size:150" json:"descripcion"`
	Monto         float64    `gorm:"type:decimal(10,2)" json:"monto"`
	TipoMoneda    string     `gorm:"size:10" json:"tipoMoneda"`
	IDUsuario     *int       `gorm:"column:id_usuario" json:"idUsuario"`
	EsActivo      *bool      `json:"esActivo"`
	FechaRegistro *time.Time `json:"fechaRegistro,omitempty"`

	Usuario *Usuario `gorm:"foreignKey:IDUsuario;references:IDUsuario" json:"idUsuarioNavigation,omitempty"`
}

func (Egreso) TableName() string { return "egreso" }
func (Egreso) EntityType() string { return realtime.EntityEgreso }
func (e *Egreso) PrimaryKey() int { return e.IDEgreso }
func (e *Egreso) SetPrimaryKey(id int) { e.IDEgreso = id }
func (e *Egreso) SetActive(active bool) { e.EsActivo = &active }
func (e *Egreso) Active() bool { return isActive(e.EsActivo) }
func (e *Egreso) ApplyDefaults(now time.Time) { stampDefaults(&e.EsActivo, &e.FechaRegistro, now) }
func (*Egreso) SearchFields() []string { return []string{"descripcion", "tipoMoneda"} }

type Venta struct {
	IDVenta         int        `gorm:"primaryKey;column:id_venta" json:"idVenta"`
	NumeroDocumento string     `gorm:"size:40" json:"numeroDocumento"`
	TipoPago        string     `gorm:"size:50" json:"tipoPago"`
	IDUsuario       *int       `gorm:"column:id_usuario" json:"idUsuario"`
	Total           float64    `gorm:"type:decimal(10,2)" json:"total"`
	FechaRegistro   *time.Time `json:"fechaRegistro,omitempty"`

	Usuario *Usuario       `gorm:"foreignKey:IDUsuario;references:IDUsuario" json:"idUsuarioNavigation,omitempty"`
	Detalle []DetalleVenta `gorm:"foreignKey:IDVenta;references:IDVenta" json:"detalleVenta,omitempty"`
}

func (Venta) TableName() string { return "venta" }
func (Venta) EntityType() string { return realtime.EntityVenta }
func (v *Venta) PrimaryKey() int { return v.IDVenta }
func (v *Venta) SetPrimaryKey(id int) { v.IDVenta = id }
func (v *Venta) ApplyDefaults(now time.Time) {
	stampDefaults(nil, &v.FechaRegistro, now)
}
func (*Venta) SearchFields() []string { return []string{"numeroDocumento", "tipoPago"} }

type DetalleVenta struct {
	IDDetalleVenta int     `gorm:"primaryKey;column:id_detalle_venta" json:"idDetalleVenta"`
	IDVenta        int     `gorm:"column:id_venta" json:"idVenta"`
	IDProducto     *int    `gorm:"column:id_producto" json:"idProducto"`
	Cantidad       int     `json:"cantidad"`
	Precio         float64 `gorm:"type:decimal(10,2)" json:"precio"`
	Total          float64 `gorm:"type:decimal(10,2)" json:"total"`
}

func (DetalleVenta) TableName() string { return "detalle_venta" }

// Models lists every table in dependency order for AutoMigrate.
func Models() []any {
	return []any{
		&Rol{}, &Categoria{}, &Proveedor{}, &Usuario{},
		&Producto{}, &Ingreso{}, &Egreso{}, &Venta{}, &DetalleVenta{},
	}
}
