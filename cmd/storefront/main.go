// Command storefront is the interactive terminal client for the Venezia
// Pizzas backend: login, cart, checkout (including the Wompi hosted
// checkout) and the order status workflow.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"venezia-storefront/internal/api"
	"venezia-storefront/internal/cart"
	"venezia-storefront/internal/checkout"
	"venezia-storefront/internal/config"
	"venezia-storefront/internal/logger"
	"venezia-storefront/internal/order"
	"venezia-storefront/internal/session"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	store, err := session.NewStore(cfg.StateDir, cfg.InactivityTimeout)
	if err != nil {
		log.Fatal("failed to open session store", zap.Error(err))
	}

	client := api.NewClient(cfg.APIBaseURL, store)
	manager := cart.NewManager(client)

	ctx := context.Background()
	store.Subscribe(func(u *session.User) {
		manager.OnIdentityChange(ctx, u != nil)
	})
	manager.OnIdentityChange(ctx, store.Current() != nil)

	a := &app{
		store:   store,
		client:  client,
		manager: manager,
		in:      bufio.NewReader(os.Stdin),
	}

	a.orch = checkout.NewOrchestrator(
		store,
		manager,
		client,
		client,
		unsupportedWidget{},
		a,
		a,
		cfg.WompiCheckoutURL,
		hostOf(cfg.APIBaseURL),
	)
	a.workflow = order.NewWorkflow(client, a, a)

	a.run(ctx)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}

type app struct {
	store    *session.Store
	client   *api.Client
	manager  *cart.Manager
	orch     *checkout.Orchestrator
	workflow *order.Workflow
	in       *bufio.Reader
}

func (a *app) run(ctx context.Context) {
	fmt.Println("Venezia Pizzas — escribe 'help' para ver los comandos")

	for {
		fmt.Print("> ")
		line, err := a.in.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		// Any command counts as activity; an idle session is dropped first.
		if a.store.IdleExpired() {
			fmt.Println("sesión expirada por inactividad")
			_ = a.store.Clear()
		}
		_ = a.store.Touch()

		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "help":
			a.printHelp()
		case "login":
			a.login(ctx, args)
		case "logout":
			a.logout(ctx)
		case "whoami":
			a.whoami()
		case "profile":
			a.editProfile(ctx)
		case "cart":
			a.showCart()
		case "add":
			a.addToCart(ctx, args)
		case "qty":
			a.updateQuantity(ctx, args)
		case "rm":
			a.removeItem(ctx, args)
		case "checkout":
			a.checkout(ctx)
		case "retry":
			a.retryPayment(ctx, args)
		case "orders":
			a.listOrders(ctx, args)
		case "advance":
			a.transition(ctx, args, a.workflow.Advance)
		case "cancel":
			a.transition(ctx, args, a.workflow.Cancel)
		case "refund":
			a.transition(ctx, args, a.workflow.Refund)
		case "exit", "quit":
			return
		default:
			fmt.Printf("comando desconocido: %s\n", cmd)
		}
	}
}

func (a *app) printHelp() {
	fmt.Print(`  login <email> <password>   iniciar sesión
  logout                     cerrar sesión
  whoami                     usuario actual
  profile                    completar datos de envío
  cart                       ver carrito
  add <variante> <cantidad>  agregar al carrito
  qty <item> <cantidad>      cambiar cantidad
  rm <item>                  quitar del carrito
  checkout                   iniciar el pago
  retry <pedido>             reintentar el pago de un pedido pendiente
  orders [estado]            listar pedidos
  advance <pedido>           avanzar estado (operador)
  cancel <pedido>            cancelar pedido pendiente
  refund <pedido>            reembolsar pedido pagado (admin)
  exit                       salir
`)
}

func (a *app) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("uso: login <email> <password>")
		return
	}

	token, user, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		fmt.Printf("login falló: %v\n", err)
		return
	}
	if err := a.store.SetSession(token, user); err != nil {
		fmt.Printf("no se pudo guardar la sesión: %v\n", err)
		return
	}
	fmt.Printf("hola, %s\n", user.Name)
}

func (a *app) logout(ctx context.Context) {
	// Local state is cleared even if the backend call fails.
	if err := a.client.Logout(ctx); err != nil {
		logger.L().Warn("logout request failed", zap.Error(err))
	}
	_ = a.store.Clear()
	fmt.Println("sesión cerrada")
}

func (a *app) whoami() {
	u := a.store.Current()
	if u == nil {
		fmt.Println("no has iniciado sesión")
		return
	}
	fmt.Printf("%s <%s>\n", u.Name, u.Email)
	if missing := u.Profile.MissingShippingFields(); len(missing) > 0 {
		fmt.Printf("perfil incompleto, faltan: %s\n", strings.Join(missing, ", "))
	} else {
		fmt.Printf("envío a: %s, %s\n", u.Profile.Address, u.Profile.City)
	}
}

func (a *app) editProfile(ctx context.Context) {
	u := a.store.Current()
	if u == nil {
		fmt.Println("inicia sesión primero")
		return
	}

	p := u.Profile
	p.Address = a.prompt("dirección", p.Address)
	p.City = a.prompt("ciudad", p.City)
	p.Region = a.prompt("departamento", p.Region)
	p.Phone = a.prompt("teléfono", p.Phone)
	p.PostalCode = a.prompt("código postal", p.PostalCode)

	updated, err := a.client.UpdateProfile(ctx, p)
	if err != nil {
		fmt.Printf("no se pudo guardar el perfil: %v\n", err)
		return
	}
	if err := a.store.UpdateUser(updated); err != nil {
		fmt.Printf("perfil guardado pero no cacheado: %v\n", err)
		return
	}
	fmt.Println("perfil actualizado")
}

// prompt shows the current value and keeps it on empty input.
func (a *app) prompt(label, current string) string {
	if current != "" {
		fmt.Printf("%s [%s]: ", label, current)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := a.in.ReadString('\n')
	if err != nil {
		return current
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

func (a *app) showCart() {
	items := a.manager.Items()
	if len(items) == 0 {
		fmt.Println("carrito vacío")
		return
	}
	for _, it := range items {
		fmt.Printf("  [%d] %s x%d  $%.0f\n", it.ID, it.ProductName, it.Quantity, it.LineTotal())
	}
	fmt.Printf("  total: $%.0f (%d productos)\n", a.manager.Subtotal(), a.manager.Count())
}

func (a *app) addToCart(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("uso: add <variante> [cantidad]")
		return
	}
	variantID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("variante inválida")
		return
	}
	qty := 1
	if len(args) > 1 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			fmt.Println("cantidad inválida")
			return
		}
	}

	if err := a.manager.Add(ctx, variantID, qty); err != nil {
		fmt.Printf("no se pudo agregar: %v\n", err)
		return
	}
	a.showCart()
}

func (a *app) updateQuantity(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("uso: qty <item> <cantidad>")
		return
	}
	itemID, err1 := strconv.ParseInt(args[0], 10, 64)
	qty, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Println("argumentos inválidos")
		return
	}

	if err := a.manager.UpdateQuantity(ctx, itemID, qty); err != nil {
		fmt.Printf("no se pudo actualizar: %v\n", err)
		return
	}
	a.showCart()
}

func (a *app) removeItem(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("uso: rm <item>")
		return
	}
	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("item inválido")
		return
	}

	if err := a.manager.Remove(ctx, itemID); err != nil {
		fmt.Printf("no se pudo quitar: %v\n", err)
		return
	}
	a.showCart()
}

func (a *app) checkout(ctx context.Context) {
	res, err := a.orch.Run(ctx)
	if err != nil {
		fmt.Printf("checkout: %v\n", err)
		return
	}
	a.report(res)
}

func (a *app) retryPayment(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("uso: retry <pedido>")
		return
	}
	orderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("pedido inválido")
		return
	}

	res, err := a.orch.RetryPayment(ctx, orderID)
	if err != nil {
		fmt.Printf("reintento: %v\n", err)
		return
	}
	a.report(res)
}

func (a *app) report(res *checkout.Result) {
	switch res.State {
	case checkout.StateTerminalSuccess:
		fmt.Printf("pedido #%d confirmado\n", res.OrderID)
	case checkout.StateTerminalCancelled:
		fmt.Println("checkout cancelado")
	default:
		var pre *checkout.PreconditionError
		var cfg *checkout.ConfigurationError
		var declined *checkout.GatewayDeclinedError
		switch {
		case errors.As(res.Err, &pre):
			fmt.Printf("no se puede continuar: %s\n", pre.Reason)
		case errors.As(res.Err, &cfg):
			fmt.Printf("pasarela mal configurada, faltan: %s\n", strings.Join(cfg.Missing, ", "))
		case errors.As(res.Err, &declined):
			fmt.Println("pago rechazado por la pasarela")
		case res.Err != nil:
			fmt.Printf("checkout falló: %v\n", res.Err)
		}
	}

	switch res.Route {
	case checkout.RouteLogin:
		fmt.Println("→ inicia sesión con 'login'")
	case checkout.RouteProfile:
		fmt.Println("→ completa tu perfil con 'profile'")
	case checkout.RouteOrders:
		fmt.Println("→ revisa tus pedidos con 'orders'")
	}
}

func (a *app) listOrders(ctx context.Context, args []string) {
	var status order.Status
	if len(args) > 0 {
		status = order.Status(args[0])
		if !status.Valid() {
			fmt.Printf("estado desconocido: %s\n", args[0])
			return
		}
	}

	orders, err := a.client.ListOrders(ctx, status)
	if err != nil {
		fmt.Printf("no se pudieron listar los pedidos: %v\n", err)
		return
	}
	if len(orders) == 0 {
		fmt.Println("sin pedidos")
		return
	}
	for _, o := range orders {
		fmt.Printf("  #%d  %s  $%.0f  %s  %s\n",
			o.ID, o.CreatedAt.Format("2006-01-02"), o.Total, o.Method, o.Status)
	}
}

func (a *app) transition(ctx context.Context, args []string, fn func(context.Context, *order.Order) error) {
	if len(args) != 1 {
		fmt.Println("uso: <comando> <pedido>")
		return
	}
	orderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("pedido inválido")
		return
	}

	orders, err := a.client.ListOrders(ctx, "")
	if err != nil {
		fmt.Printf("no se pudo consultar el pedido: %v\n", err)
		return
	}

	for i := range orders {
		if orders[i].ID == orderID {
			if err := fn(ctx, &orders[i]); err != nil {
				fmt.Printf("transición rechazada: %v\n", err)
				return
			}
			fmt.Printf("pedido #%d → %s\n", orderID, orders[i].Status)
			return
		}
	}
	fmt.Println("pedido no encontrado")
}

// SelectMethod implements checkout.Prompter.
func (a *app) SelectMethod(ctx context.Context, s checkout.ShippingSummary) (*checkout.MethodChoice, error) {
	fmt.Printf("envío a %s, %s\n", s.Address, s.City)
	fmt.Print("método de pago (efectivo/transferencia/wompi, enter para cancelar): ")

	line, err := a.in.ReadString('\n')
	if err != nil {
		return nil, err
	}
	method := checkout.PaymentMethod(strings.TrimSpace(line))
	if method == "" {
		return nil, nil
	}
	if !method.Valid() {
		fmt.Printf("método desconocido: %s\n", method)
		return nil, nil
	}

	note := a.prompt("notas para la cocina", "")
	return &checkout.MethodChoice{Method: method, Note: note}, nil
}

// SelectMode implements checkout.Prompter. The terminal cannot embed the
// gateway widget, so the hosted redirect is the only option offered.
func (a *app) SelectMode(ctx context.Context) (checkout.Mode, error) {
	return checkout.ModeRedirect, nil
}

// RetryDeclined implements checkout.Prompter.
func (a *app) RetryDeclined(ctx context.Context) (bool, error) {
	fmt.Print("pago rechazado, ¿intentar de nuevo? (s/n): ")
	line, err := a.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "s"), nil
}

// OpenExternal implements checkout.Navigator: hand off to the system
// browser, falling back to printing the URL.
func (a *app) OpenExternal(ctx context.Context, target string) error {
	fmt.Printf("abriendo la pasarela de pago:\n  %s\n", target)
	if err := exec.CommandContext(ctx, "xdg-open", target).Start(); err != nil {
		logger.L().Debug("xdg-open unavailable", zap.Error(err))
	}
	return nil
}

// ConfirmTransition implements order.Confirmer.
func (a *app) ConfirmTransition(ctx context.Context, o *order.Order, to order.Status) (bool, error) {
	fmt.Printf("pedido #%d: %s → %s, ¿confirmar? (s/n): ", o.ID, o.Status, to)
	line, err := a.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "s"), nil
}

// StatusChanged implements order.Notifier.
func (a *app) StatusChanged(ctx context.Context, o *order.Order, from, to order.Status) {
	fmt.Printf("pedido #%d actualizado: %s → %s\n", o.ID, from, to)
}

// unsupportedWidget satisfies checkout.Widget for environments that cannot
// embed the gateway. SelectMode never offers the widget, so this is only
// reachable through a programming error.
type unsupportedWidget struct{}

func (unsupportedWidget) Open(ctx context.Context, _ *checkout.GatewayParams) (*checkout.TransactionResult, error) {
	return nil, errors.New("embedded gateway widget is not available in the terminal client")
}
