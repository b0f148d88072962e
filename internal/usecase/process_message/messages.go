package process_message

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

const (
	textAttendant     = "Certo! Um atendente vai continuar a conversa com você em instantes."
	textNoServices    = "No momento não há serviços disponíveis para agendamento."
	textInvalidOption = "Opção inválida. Responda com o número de uma das opções."
	textAskDate       = "Para qual data? Responda no formato DD/MM/AAAA."
	textInvalidDate   = "Data inválida. Informe uma data a partir de hoje no formato DD/MM/AAAA."
	textAskPayment    = "Como prefere pagar?\n1) No local\n2) Online"
	textAskName       = "Quase lá! Qual é o seu nome completo?"
	textInvalidName   = "Não entendi seu nome. Informe nome e sobrenome."
	textSlotTaken     = "Esse horário acabou de ser reservado."
	textFailure       = "Desculpe, algo deu errado. Envie qualquer mensagem para recomeçar."
	textMenuFooter    = "Envie *menu* a qualquer momento para recomeçar."
)

func menuText(tenant *domain.Tenant) string {
	return fmt.Sprintf("Olá! Bem-vindo(a) a %s.\n1) Agendar um horário\n2) Falar com um atendente", tenant.Name)
}

func servicesText(services []domain.Service) string {
	var b strings.Builder
	b.WriteString("Qual serviço você deseja?\n")
	for i, s := range services {
		fmt.Fprintf(&b, "%d) %s - %d min - R$ %s\n", i+1, s.Name, s.DurationMinutes, strings.Replace(s.Price.StringFixed(2), ".", ",", 1))
	}
	b.WriteString(textMenuFooter)
	return b.String()
}

func staffText(staff []domain.StaffMember) string {
	var b strings.Builder
	b.WriteString("Com qual profissional?\n")
	for i, s := range staff {
		fmt.Fprintf(&b, "%d) %s\n", i+1, s.Name)
	}
	fmt.Fprintf(&b, "%d) Qualquer profissional", len(staff)+1)
	return b.String()
}

func timesText(date time.Time, options []domain.SlotOption, names map[int64]string, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Horários disponíveis em %s:\n", date.Format(domain.DisplayDateFormat))
	for i, o := range options {
		fmt.Fprintf(&b, "%d) %s", i+1, o.StartsAt.In(loc).Format(domain.TimeFormat))
		if name := names[o.StaffID]; name != "" {
			fmt.Fprintf(&b, " - %s", name)
		}
		b.WriteString("\n")
	}
	b.WriteString("Responda com o número do horário.")
	return b.String()
}

func noSlotsText(date time.Time) string {
	return fmt.Sprintf("Não há horários livres em %s. Informe outra data no formato DD/MM/AAAA.", date.Format(domain.DisplayDateFormat))
}

func confirmationText(booking *domain.Booking, service *domain.Service, staffName string, benefit domain.BenefitSource, loc *time.Location) string {
	start := booking.StartsAt.In(loc)

	var b strings.Builder
	fmt.Fprintf(&b, "Agendamento confirmado! %s", service.Name)
	if staffName != "" {
		fmt.Fprintf(&b, " com %s", staffName)
	}
	fmt.Fprintf(&b, " em %s às %s.", start.Format(domain.DisplayDateFormat), start.Format(domain.TimeFormat))

	switch {
	case benefit.Kind == domain.BenefitSubscription:
		b.WriteString("\nEste horário será registrado na sua assinatura.")
	case benefit.Kind == domain.BenefitPackage:
		b.WriteString("\nUma sessão do seu pacote foi utilizada.")
	case booking.Status == domain.StatusPendingPayment:
		b.WriteString("\nVocê receberá o link de pagamento em seguida.")
	}
	return b.String()
}
