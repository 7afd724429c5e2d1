// README: Message catalog. All user-facing strings live here, keyed by a
// closed template enum and rendered per language, keeping the wording out
// of the transition logic.
package dialogue

import (
	"fmt"

	"tlx/internal/modules/intent"
	"tlx/internal/modules/language"
)

type templateKey int

const (
	msgConfirmIntent templateKey = iota
	msgCancelled
	msgAskName
	msgAskStartDate
	msgAskEndDate
	msgAskPostal
	msgAskAttachments
	msgMissingFields
	msgReturnReason
	msgEndOfUse
	msgReturnMissing
	msgReturnDone
	msgSummary
	msgDone
	msgEditHelp
)

var catalog = map[templateKey]map[language.Code]string{
	msgConfirmIntent: {
		language.FR: "Pour confirmer, tu veux %s ?",
		language.EN: "To confirm, do you want to %s ?",
		language.AR: "لتأكيد، هل تريد %s ؟",
	},
	msgCancelled: {
		language.FR: "D'accord, annule.",
		language.EN: "Okay, cancelled.",
		language.AR: "حسناً، تم الإلغاء.",
	},
	msgAskName: {
		language.FR: "C'est parti ! D'abord, votre Nom et Prenom (ex: Dupont, Marie) ?",
		language.EN: "Let's go! First, your Last and First name (e.g. Dupont, Marie)?",
		language.AR: "لنبدأ! أولاً، اللقب والاسم الأول (مثال: Dupont, Marie)؟",
	},
	msgAskStartDate: {
		language.FR: "Merci ! Date de debut de location (ex: 22/01/2026) ?",
		language.EN: "Thanks! Rental start date (e.g. 22/01/2026)?",
		language.AR: "شكراً! تاريخ بدء الاستئجار (مثال: 22/01/2026)؟",
	},
	msgAskEndDate: {
		language.FR: "Note. Date de fin (ex: 29/01/2026) ?",
		language.EN: "Noted. End date (e.g. 29/01/2026)?",
		language.AR: "تم. تاريخ النهاية (مثال: 29/01/2026)؟",
	},
	msgAskPostal: {
		language.FR: "Parfait. Votre Code postal (5 chiffres) ?",
		language.EN: "Great. Your Postal code (5 digits)?",
		language.AR: "ممتاز. الرمز البريدي (5 أرقام)؟",
	},
	msgAskAttachments: {
		language.FR: "Il ne manque que les 2 fichiers (PDF ou image) : Ordonnance + Carte mutuelle.",
		language.EN: "Only the 2 files left (PDF or image): Prescription + Insurance card.",
		language.AR: "بقي فقط الملفان (PDF أو صورة): الوصفة + بطاقة التأمين.",
	},
	msgMissingFields: {
		language.FR: "Merci, il manque ces informations: %s. Merci de les envoyer EN UNE SEULE reponse.",
		language.EN: "Thanks, missing info: %s. Please send them IN A SINGLE reply.",
		language.AR: "شكرًا، المعلومات المفقودة: %s. يرجى إرسالها في رد واحد.",
	},
	msgReturnReason: {
		language.FR: "Parfait. Pour le retour, précisez le motif:\n\n• Fin d’utilisation: nous vous envoyons l’étiquette Chronopost. Confirmez votre code postal si besoin.\n• Problème/échange: envoyez EN UNE SEULE réponse: Référence de commande, Photo/vidéo du problème, 'échange' ou 'remboursement', et votre Code postal.",
		language.EN: "Great. For the return, please specify the reason:\n\n• End of use: we’ll send you the Chronopost label. Confirm your postal code if needed.\n• Issue/exchange: send IN A SINGLE reply: Order reference, Photo/video of the issue, 'exchange' or 'refund', and your Postal code.",
		language.AR: "حسناً. بخصوص الإرجاع، حدِّد السبب:\n\n• انتهاء الاستخدام: سنرسل لك ملصق الشحن (Chronopost). أكِّد الرمز البريدي إن لزم.\n• مشكلة/استبدال: أرسل في رد واحد: مرجع الطلب، صورة/فيديو للمشكلة، 'استبدال' أو 'استرداد'، والرمز البريدي.",
	},
	msgEndOfUse: {
		language.FR: "Très bien — retour fin d’utilisation. Le retour se fait via Chronopost : téléchargez l’étiquette sur notre site, mettez dans un carton le tire‑lait, le chargeur, le sac de transport et le pain de glace, puis déposez le colis en relais pickup/Chronopost. Besoin d’aide ? Dites-le moi et je vous renvoie le lien.",
		language.EN: "Got it — end-of-use return. Please use the Chronopost label from our website, put the breast pump, charger, transport bag and ice pack in a box, then drop it at a pickup/Chronopost location. Need help? I can resend the link.",
		language.AR: "حسناً — إرجاع لانتهاء الاستخدام. استخدم ملصق Chronopost من موقعنا، وضع الجهاز مع الشاحن وحقيبة النقل وقطعة الثلج في صندوق، ثم سلِّم الطرد في نقطة استلام. إن احتجت الرابط أخبرني.",
	},
	msgReturnMissing: {
		language.FR: "Merci, il manque ces informations pour le retour: %s. Merci de les envoyer EN UNE SEULE reponse.",
		language.EN: "Thanks, missing info for return: %s. Please send them IN A SINGLE reply.",
		language.AR: "شكرًا، المعلومات المفقودة للعودة: %s. يرجى إرسالها في رد واحد.",
	},
	msgReturnDone: {
		language.FR: "Nous avons bien reçu votre dossier. Nous procédons à l'envoi d'un nouveau tire-lait et vous enverrons les détails d'expédition par email/sms sous 24h.",
		language.EN: "We received your case. We'll send a replacement pump and provide shipping details via email/sms within 24h.",
		language.AR: "لقد استلمنا ملفك. سنرسل جهازًا بديلاً ونوافيك بتفاصيل الشحن خلال 24 ساعة.",
	},
	msgSummary: {
		language.FR: "Recapitulatif :\n- Nom : %s\n- Date debut : %s\n- Date fin : %s\n- Code postal : %s\n- Pieces jointes : %d\n\nOn confirme ? (oui/non)",
		language.EN: "Summary:\n- Name: %s\n- Start date: %s\n- End date: %s\n- Postal code: %s\n- Attachments: %d\n\nConfirm? (yes/no)",
		language.AR: "الملخص:\n- الاسم: %s\n- تاريخ البدء: %s\n- تاريخ النهاية: %s\n- الرمز البريدي: %s\n- المرفقات: %d\n\nهل نؤكد؟ (نعم/لا)",
	},
	msgDone: {
		language.FR: "Parfait — nous avons bien recu votre demande de location avec les informations et pieces jointes. Nous procedons a la reservation et revenons vers vous sous 24h.",
		language.EN: "Perfect — we received your rental request with all details and attachments. We'll proceed and get back within 24h.",
		language.AR: "ممتاز — لقد استلمنا طلب الاستئجار بكل البيانات والمرفقات. سنقوم بالإجراءات ونعود إليك خلال 24 ساعة.",
	},
	msgEditHelp: {
		language.FR: "Quel champ corriger ? Envoyez par exemple : Code postal : 69001 (champs: Nom, Date debut, Date fin, Code postal)",
		language.EN: "Which field to correct? Send e.g.: Postal code: 69001 (fields: Name, Start date, End date, Postal code)",
		language.AR: "أي حقل تريد تصحيحه؟ أرسل مثلاً: الرمز البريدي : 69001 (الحقول: الاسم، تاريخ البدء، تاريخ النهاية، الرمز البريدي)",
	},
}

// render formats the template for the given language. Unknown languages
// fall back to the default.
func render(key templateKey, lang language.Code, args ...any) string {
	byLang, ok := catalog[key]
	if !ok {
		return ""
	}
	tmpl, ok := byLang[lang]
	if !ok {
		tmpl = byLang[language.Default]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// intentPhrase is the verb phrase substituted into confirmation prompts.
func intentPhrase(i intent.Intent, lang language.Code) string {
	switch lang {
	case language.EN:
		switch i {
		case intent.Rent:
			return "rent a breast pump"
		case intent.Renew:
			return "renew"
		default:
			return "return"
		}
	case language.AR:
		switch i {
		case intent.Rent:
			return "استئجار شفاط"
		case intent.Renew:
			return "تجديد"
		default:
			return "إرجاع"
		}
	default:
		switch i {
		case intent.Rent:
			return "louer un tire-lait"
		case intent.Renew:
			return "renouveler"
		default:
			return "retourner"
		}
	}
}

// fieldLabel names a slot for missing-field enumeration messages.
func fieldLabel(s slot, lang language.Code) string {
	labels := map[slot]map[language.Code]string{
		slotName: {
			language.FR: "Nom + Prenom",
			language.EN: "Last + First name",
			language.AR: "اللقب + الاسم الأول",
		},
		slotDates: {
			language.FR: "Date debut et date fin",
			language.EN: "Start and end date",
			language.AR: "تاريخ البدء والنهاية",
		},
		slotPostal: {
			language.FR: "Code postal",
			language.EN: "Postal code",
			language.AR: "الرمز البريدي",
		},
		slotFiles: {
			language.FR: "Ordonnance + Carte mutuelle (PDF ou image)",
			language.EN: "Prescription + Insurance card (PDF or image)",
			language.AR: "الوصفة + بطاقة التأمين (PDF أو صورة)",
		},
		slotOrderRef: {
			language.FR: "Référence de commande",
			language.EN: "Order reference",
			language.AR: "مرجع الطلب",
		},
		slotChoice: {
			language.FR: "Échange ou remboursement",
			language.EN: "Exchange or refund",
			language.AR: "استبدال أو استرداد",
		},
		slotPhoto: {
			language.FR: "Photo/vidéo du problème",
			language.EN: "Photo/video of the issue",
			language.AR: "صورة/فيديو للمشكلة",
		},
	}
	byLang := labels[s]
	if l, ok := byLang[lang]; ok {
		return l
	}
	return byLang[language.Default]
}
