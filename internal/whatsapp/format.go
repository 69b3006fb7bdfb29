package whatsapp

import (
	"fmt"
	"strings"
	"time"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
)

var statusHeaders = map[string]string{
	"pending":   "⏳ *PEDIDO ENVIADO E PENDENTE DE ACEITAÇÃO*",
	"preparing": "👨‍🍳 *PREPARANDO SEU PEDIDO*",
	"delivered": "🚚 *PEDIDO ENTREGUE*",
	"finished":  "✅ *PEDIDO FINALIZADO*",
	"cleaned":   "🧹 *MESA LIBERADA*",
}

var paymentLabels = map[string]string{
	"card": "💳 Cartão",
	"cash": "💵 Dinheiro",
	"pix":  "📱 PIX",
}

// FormatOrderMessage renders the customer-facing WhatsApp text for an
// order status change.
func FormatOrderMessage(order *domain.OrderSnapshot, status, deliveryTime string) string {
	header, ok := statusHeaders[status]
	if !ok {
		header = "📱 *ATUALIZAÇÃO DO PEDIDO*"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ *PRODUTO PEDEFACIL*\n\n%s\n\n", header)
	fmt.Fprintf(&b, "🏪 *%s*\n", order.RestaurantName)
	fmt.Fprintf(&b, "👤 *Cliente:* %s\n", order.CustomerName)
	fmt.Fprintf(&b, "📞 *Telefone:* %s\n", order.CustomerPhone)
	fmt.Fprintf(&b, "🆔 *Pedido:* #%d", order.ID)

	if order.OrderType == "table" && order.TableNumber > 0 {
		fmt.Fprintf(&b, "\n🪑 *Mesa:* %d", order.TableNumber)
	}

	if order.OrderType == "delivery" && order.AddressStreet != "" {
		fmt.Fprintf(&b, "\n📍 *Endereço:* %s", order.AddressStreet)
		if order.AddressNumber != "" {
			fmt.Fprintf(&b, ", %s", order.AddressNumber)
		}
		fmt.Fprintf(&b, "\n🏘️ *Bairro:* %s\n📮 *CEP:* %s", order.AddressNeighborhood, order.AddressCep)
		if order.AddressComplement != "" {
			fmt.Fprintf(&b, "\n🏠 *Complemento:* %s", order.AddressComplement)
		}
	}

	payment, ok := paymentLabels[order.MethodType]
	if !ok {
		payment = order.MethodType
	}
	fmt.Fprintf(&b, "\n💰 *Pagamento:* %s", payment)
	fmt.Fprintf(&b, "\n💰 *Total:* R$ %.2f", order.Total)

	if order.AdditionalInfo != "" {
		fmt.Fprintf(&b, "\n📝 *Informações Adicionais:* %s", order.AdditionalInfo)
	}

	fmt.Fprintf(&b, "\n\n📝 *Status:* %s", statusDescription(order, status, deliveryTime))

	if len(order.Items) > 0 {
		b.WriteString("\n\n📋 *ITENS DO PEDIDO:*\n")
		for _, item := range order.Items {
			fmt.Fprintf(&b, "• %dx %s - R$ %.2f\n", item.Quantity, item.Name, item.Price*float64(item.Quantity))
		}
	}

	fmt.Fprintf(&b, "\n⏰ *%s*\n\n", time.Now().Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "━━━━━━━━━━━━━━━━━━━━━\n🍽️ *%s*\n📱 %s", order.RestaurantName, order.RestaurantPhone)

	return strings.TrimSpace(b.String())
}

func statusDescription(order *domain.OrderSnapshot, status, deliveryTime string) string {
	switch status {
	case "pending":
		return fmt.Sprintf("Seu pedido foi enviado e está aguardando a aceitação do restaurante. Para dúvidas, entre em contato com o restaurante pelo número: %s.", order.RestaurantPhone)
	case "preparing":
		desc := "Nossa equipe está preparando seu pedido com muito carinho!"
		if deliveryTime != "" {
			desc += "\nPrevisão de entrega: " + deliveryTime
		}
		return desc
	case "delivered":
		if order.OrderType == "table" {
			return "Seu pedido foi entregue na mesa!"
		}
		return "Seu pedido foi entregue!"
	case "finished":
		return "Pedido finalizado. Obrigado pela preferência!"
	case "cleaned":
		return "Mesa liberada. Volte sempre!"
	}
	return "Pedido atualizado."
}
