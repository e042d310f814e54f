package cli

const usageTemplate = `
cartsync client

Usage:
  cartsync [OPTIONS] COMMAND

Options:
  --version            Show version information
  --server URL         Cart store URL (default: http://localhost:8090)
  --db PATH            Path to local database (default: cartsync-client.db)
  --cart ID            Cart identity to operate on (default: "default")
  --device-name NAME   Display name for this device (default: hostname)
  --device-class CLASS Device class: desktop, mobile or web (default: desktop)

Commands:
  add <item-id> <name> <price-cents> <quantity>   Add an item to the cart
  update <item-id> <quantity>                     Change an item quantity
  remove <item-id>                                Remove an item
  clear                                           Empty the cart
  show                                            Show the current cart
  devices                                         List devices known for this cart
  sync                                            Run a sync cycle now
  status                                          Show sync status

Examples:
  cartsync add sku-42 "Espresso Beans 1kg" 1299 2
  cartsync update sku-42 3
  cartsync remove sku-42
  cartsync show
  cartsync --server https://store.example.com sync
`

const cartTemplate = `
=== Cart {{.CartID}} ===

{{- if eq (len .Items) 0 }}
Cart is empty.
{{ else }}

{{- range .Items }}
- {{ .Name }}
   ID:       {{ .ItemID }}
   Price:    {{ .Price }}
   Quantity: {{ .Quantity }}

{{- end }}
Total items: {{ .Count }}
Total:       {{ .Total }}
{{- end }}
`

const devicesTemplate = `
=== Devices ===

{{- if eq (len .) 0 }}
No devices registered yet.
{{ else }}

{{- range . }}
- {{ .DisplayName }}
   ID:        {{ .DeviceID }}
   Class:     {{ .DeviceClass }}
   Last seen: {{ .LastSeen.Format "2006-01-02 15:04:05" }}
   Online:    {{ .Online }}

{{- end }}
{{- end }}
`
