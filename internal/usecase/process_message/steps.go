package process_message

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/holds"
	"github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
)

const textUnavailable = "Essa opção não está mais disponível."

func withPrefix(prefix, text string) string {
	if prefix == "" {
		return text
	}
	return prefix + "\n" + text
}

func (uc *UseCase) onMenu(ctx context.Context, s *session, text string) (turn, error) {
	switch strings.TrimSpace(text) {
	case "1":
		return uc.offerServices(ctx, s, "")
	case "2":
		return turn{reply: textAttendant, payload: domain.MenuPayload{}, result: ResultProcessed}, nil
	}
	return turn{reply: menuText(s.tenant), payload: domain.MenuPayload{}, result: ResultProcessed}, nil
}

func (uc *UseCase) offerServices(ctx context.Context, s *session, prefix string) (turn, error) {
	services, err := uc.catalog.ListActiveServices(ctx, s.tenant.ID)
	if err != nil {
		return turn{}, fmt.Errorf("list services: %w", err)
	}
	if len(services) == 0 {
		return turn{reply: withPrefix(prefix, textNoServices), payload: domain.MenuPayload{}, result: ResultProcessed}, nil
	}

	ids := make([]int64, len(services))
	for i, svc := range services {
		ids[i] = svc.ID
	}
	return turn{
		reply:   withPrefix(prefix, servicesText(services)),
		payload: domain.ChooseServicePayload{ServiceIDs: ids},
		result:  resultFor(prefix),
	}, nil
}

func (uc *UseCase) onChooseService(ctx context.Context, s *session, p domain.ChooseServicePayload, text string) (turn, error) {
	n, ok := parseChoice(text, len(p.ServiceIDs))
	if !ok {
		return uc.offerServices(ctx, s, textInvalidOption)
	}
	serviceID := p.ServiceIDs[n-1]

	if _, err := uc.catalog.GetService(ctx, s.tenant.ID, serviceID); err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			return uc.offerServices(ctx, s, textUnavailable)
		}
		return turn{}, fmt.Errorf("get service %d: %w", serviceID, err)
	}
	return uc.offerStaff(ctx, s, serviceID, "")
}

// offerStaff предлагает выбрать сотрудника. Единственный подходящий сотрудник выбирается сразу
func (uc *UseCase) offerStaff(ctx context.Context, s *session, serviceID int64, prefix string) (turn, error) {
	staff, err := uc.availability.EligibleStaff(ctx, s.tenant.ID, serviceID, nil)
	if err != nil {
		return turn{}, fmt.Errorf("eligible staff for service %d: %w", serviceID, err)
	}

	switch len(staff) {
	case 0:
		return uc.offerServices(ctx, s, "Nenhum profissional atende esse serviço no momento.")
	case 1:
		staffID := staff[0].ID
		return turn{
			reply:   withPrefix(prefix, textAskDate),
			payload: domain.ChooseDatePayload{ServiceID: serviceID, StaffID: &staffID},
			result:  resultFor(prefix),
		}, nil
	}

	ids := make([]int64, len(staff))
	for i, st := range staff {
		ids[i] = st.ID
	}
	return turn{
		reply:   withPrefix(prefix, staffText(staff)),
		payload: domain.ChooseStaffPayload{ServiceID: serviceID, StaffIDs: ids},
		result:  resultFor(prefix),
	}, nil
}

func (uc *UseCase) onChooseStaff(ctx context.Context, s *session, p domain.ChooseStaffPayload, text string) (turn, error) {
	n, ok := parseChoice(text, len(p.StaffIDs)+1)
	if !ok {
		return uc.offerStaff(ctx, s, p.ServiceID, textInvalidOption)
	}

	next := domain.ChooseDatePayload{ServiceID: p.ServiceID}
	if n <= len(p.StaffIDs) {
		staffID := p.StaffIDs[n-1]
		next.StaffID = &staffID
	}
	return turn{reply: textAskDate, payload: next, result: ResultProcessed}, nil
}

func (uc *UseCase) onChooseDate(ctx context.Context, s *session, p domain.ChooseDatePayload, text string) (turn, error) {
	date, ok := parseDate(text, s.now, s.loc)
	if !ok {
		return turn{reply: textInvalidDate, payload: p, result: ResultInvalid}, nil
	}
	return uc.offerTimes(ctx, s, p.ServiceID, p.StaffID, date, "")
}

// offerTimes предлагает свободное время на дату. Без свободного времени разговор остается на выборе даты
func (uc *UseCase) offerTimes(ctx context.Context, s *session, serviceID int64, staffID *int64, date time.Time, prefix string) (turn, error) {
	result, err := uc.availability.GetSlots(ctx, availability.Query{
		Tenant:        s.tenant,
		ServiceID:     serviceID,
		StaffID:       staffID,
		Date:          date,
		IgnoreHoldsOf: s.key,
	})
	if err != nil {
		if errors.Is(err, availability.ErrServiceNotFound) || errors.Is(err, availability.ErrStaffNotFound) {
			return uc.offerServices(ctx, s, textUnavailable)
		}
		return turn{}, fmt.Errorf("get slots: %w", err)
	}

	options := offeredOptions(result.Slots, uc.cfg.MaxOfferedSlots)
	if len(options) == 0 {
		return turn{
			reply:   withPrefix(prefix, noSlotsText(date)),
			payload: domain.ChooseDatePayload{ServiceID: serviceID, StaffID: staffID},
			result:  resultFor(prefix),
		}, nil
	}

	names := make(map[int64]string, len(result.Staff))
	for _, st := range result.Staff {
		names[st.ID] = st.Name
	}
	return turn{
		reply: withPrefix(prefix, timesText(date, options, names, s.loc)),
		payload: domain.ChooseTimePayload{
			ServiceID: serviceID,
			StaffID:   staffID,
			Date:      date.Format(domain.DateFormat),
			Options:   options,
		},
		result: resultFor(prefix),
	}, nil
}

// offeredOptions не больше max вариантов, одинаковое время показывается один раз
// (за первым сотрудником; слоты упорядочены по времени, затем по id сотрудника)
func offeredOptions(slots []domain.AvailableSlot, max int) []domain.SlotOption {
	options := make([]domain.SlotOption, 0, min(len(slots), max))
	seen := make(map[int64]struct{}, len(slots))
	for _, slot := range slots {
		if len(options) == max {
			break
		}
		k := slot.StartsAt.Unix()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		options = append(options, domain.SlotOption{StartsAt: slot.StartsAt, StaffID: slot.StaffID})
	}
	return options
}

func (uc *UseCase) onChooseTime(ctx context.Context, s *session, p domain.ChooseTimePayload, text string) (turn, error) {
	date, err := time.ParseInLocation(domain.DateFormat, p.Date, s.loc)
	if err != nil {
		return turn{}, fmt.Errorf("stored date %q: %w", p.Date, err)
	}

	n, ok := parseChoice(text, len(p.Options))
	if !ok {
		return uc.offerTimes(ctx, s, p.ServiceID, p.StaffID, date, textInvalidOption)
	}
	opt := p.Options[n-1]

	if !opt.StartsAt.After(s.now) {
		return uc.retakeTime(ctx, s, p.ServiceID, p.StaffID, date)
	}

	service, err := uc.catalog.GetService(ctx, s.tenant.ID, p.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			return uc.offerServices(ctx, s, textUnavailable)
		}
		return turn{}, fmt.Errorf("get service %d: %w", p.ServiceID, err)
	}

	hold, err := uc.holds.Create(ctx, holds.CreateRequest{
		TenantID:        s.tenant.ID,
		StaffID:         opt.StaffID,
		ServiceID:       p.ServiceID,
		ConversationKey: s.key,
		StartsAt:        opt.StartsAt,
		EndsAt:          opt.StartsAt.Add(s.config.TotalDuration(service.DurationMinutes, 0)),
		Buffer:          s.config.Buffer(),
	})
	if err != nil {
		if errors.Is(err, holds.ErrHoldConflict) {
			uc.logger.Info("ProcessMessage: conversation %s lost %s to another client", s.key, opt.StartsAt.Format(time.RFC3339))
			return uc.retakeTime(ctx, s, p.ServiceID, p.StaffID, date)
		}
		return turn{}, fmt.Errorf("create hold: %w", err)
	}

	if s.config.OnlinePaymentEnabled {
		return turn{
			reply: textAskPayment,
			payload: domain.ChoosePaymentPayload{
				ServiceID: p.ServiceID,
				StaffID:   opt.StaffID,
				StartsAt:  opt.StartsAt,
				HoldID:    hold.ID,
			},
			result: ResultProcessed,
		}, nil
	}
	return turn{
		reply: textAskName,
		payload: domain.AskNamePayload{
			ServiceID:     p.ServiceID,
			StaffID:       opt.StaffID,
			StartsAt:      opt.StartsAt,
			HoldID:        hold.ID,
			PaymentMethod: domain.PaymentOnSite,
		},
		result: ResultProcessed,
	}, nil
}

// retakeTime повторно предлагает время, когда выбранное окно заняли
func (uc *UseCase) retakeTime(ctx context.Context, s *session, serviceID int64, staffID *int64, date time.Time) (turn, error) {
	t, err := uc.offerTimes(ctx, s, serviceID, staffID, date, textSlotTaken)
	if err != nil {
		return turn{}, err
	}
	t.result = ResultConflict
	return t, nil
}

func (uc *UseCase) onChoosePayment(p domain.ChoosePaymentPayload, text string) (turn, error) {
	n, ok := parseChoice(text, 2)
	if !ok {
		return turn{reply: withPrefix(textInvalidOption, textAskPayment), payload: p, result: ResultInvalid}, nil
	}

	method := domain.PaymentOnSite
	if n == 2 {
		method = domain.PaymentOnline
	}
	return turn{
		reply: textAskName,
		payload: domain.AskNamePayload{
			ServiceID:     p.ServiceID,
			StaffID:       p.StaffID,
			StartsAt:      p.StartsAt,
			HoldID:        p.HoldID,
			PaymentMethod: method,
		},
		result: ResultProcessed,
	}, nil
}

func (uc *UseCase) onAskName(ctx context.Context, s *session, p domain.AskNamePayload, text string) (turn, error) {
	name, ok := parseName(text)
	if !ok {
		return turn{reply: textInvalidName, payload: p, result: ResultInvalid}, nil
	}

	staffID := p.StaffID
	resp, err := uc.bookings.Execute(ctx, &create_booking.Request{
		TenantRef:     strconv.FormatInt(s.tenant.ID, 10),
		ServiceID:     p.ServiceID,
		StaffID:       &staffID,
		Customer:      create_booking.CustomerInput{Name: name, Phone: s.contact},
		StartsAt:      p.StartsAt,
		PaymentMethod: p.PaymentMethod,
		CreatedVia:    domain.CreatedViaMessaging,
	})
	if err != nil {
		if errors.Is(err, create_booking.ErrTimeConflict) || errors.Is(err, create_booking.ErrInvalidPayload) {
			uc.logger.Warn("ProcessMessage: conversation %s could not book %s: %v", s.key, p.StartsAt.Format(time.RFC3339), err)
			uc.release(ctx, p)
			start := p.StartsAt.In(s.loc)
			date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
			return uc.retakeTime(ctx, s, p.ServiceID, nil, date)
		}
		return turn{}, fmt.Errorf("create booking: %w", err)
	}

	if err := uc.holds.Convert(ctx, p.HoldID, resp.Booking.ID); err != nil {
		uc.logger.Warn("ProcessMessage: booking %d created but hold %s not converted: %v", resp.Booking.ID, p.HoldID, err)
	}

	staffName := ""
	if staff, err := uc.catalog.GetStaff(ctx, s.tenant.ID, resp.Booking.StaffID); err == nil {
		staffName = staff.Name
	} else {
		uc.logger.Warn("ProcessMessage: staff %d of booking %d not loaded: %v", resp.Booking.StaffID, resp.Booking.ID, err)
	}

	return turn{
		reply:   confirmationText(resp.Booking, resp.Service, staffName, resp.Benefit, s.loc),
		payload: domain.DonePayload{BookingID: resp.Booking.ID},
		result:  ResultBooked,
	}, nil
}

func (uc *UseCase) release(ctx context.Context, p domain.AskNamePayload) {
	if err := uc.holds.Release(ctx, p.HoldID); err != nil && !errors.Is(err, holds.ErrHoldNotFound) {
		uc.logger.Warn("ProcessMessage: failed to release hold %s: %v", p.HoldID, err)
	}
}

// resultFor ответ с пояснением означает, что ввод не был принят как есть
func resultFor(prefix string) string {
	if prefix == "" {
		return ResultProcessed
	}
	return ResultInvalid
}
