package template

import "gitee.com/flycash/repairshop-notification/internal/domain"

// BuiltinSources 内置的五个模板
func BuiltinSources() map[domain.TemplateID]Source {
	return map[domain.TemplateID]Source{
		domain.TemplateBookingConfirmation: {
			Subject: "Potwierdzenie rezerwacji: {{.device}}",
			Body: `Dzień dobry {{.customerName}},

potwierdzamy przyjęcie zgłoszenia dla urządzenia **{{.device}}**.
Termin wizyty: **{{.bookingDate}}**.
`,
		},
		domain.TemplateRepairStatusUpdate: {
			Subject: "Aktualizacja naprawy: {{.device}}",
			Body: `Status naprawy urządzenia **{{.device}}** został zaktualizowany.

- Usterka: {{.issue}}
- Postęp: {{.progress}}
- Technik: {{.technician}}
`,
		},
		domain.TemplateRepairReady: {
			Subject: "Urządzenie gotowe do odbioru (zgłoszenie {{.ticketNumber}})",
			Body: `Dzień dobry {{.customerName}},

urządzenie **{{.device}}** jest gotowe do odbioru.
Numer zgłoszenia: **{{.ticketNumber}}**.
`,
		},
		domain.TemplateAppointmentReminder: {
			Subject: "Przypomnienie o wizycie",
			Body: `Dzień dobry {{.customerName}},

przypominamy o wizycie w serwisie: **{{.appointmentDate}}**.
`,
		},
		domain.TemplateEmailConfirmation: {
			Subject: "Potwierdź adres e-mail",
			Body: `Dzień dobry {{.customerName}},

aby potwierdzić adres e-mail, otwórz link: {{.confirmationLink}}
`,
		},
	}
}
