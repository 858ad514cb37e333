package dialplan

// plans lists the known national dial plans, ordered by country name.
var plans = []DialPlan{
	{Country: "Afghanistan", ISO: "AF", CCC: "93", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Albania", ISO: "AL", CCC: "355", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Algeria", ISO: "DZ", CCC: "213", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "American Samoa", ISO: "AS", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Andorra", ISO: "AD", CCC: "376", NationalNumberLength: 6, InternationalCallPrefix: "00"},
	{Country: "Angola", ISO: "AO", CCC: "244", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Anguilla", ISO: "AI", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Antigua and Barbuda", ISO: "AG", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Argentina", ISO: "AR", CCC: "54", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Armenia", ISO: "AM", CCC: "374", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Aruba", ISO: "AW", CCC: "297", NationalNumberLength: 7, InternationalCallPrefix: "011"},
	{Country: "Australia", ISO: "AU", CCC: "61", NationalNumberLength: 9, InternationalCallPrefix: "0011"},
	{Country: "Austria", ISO: "AT", CCC: "43", NationalNumberLength: 13, InternationalCallPrefix: "00"},
	{Country: "Azerbaijan", ISO: "AZ", CCC: "994", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Bahamas", ISO: "BS", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Bahrain", ISO: "BH", CCC: "973", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Bangladesh", ISO: "BD", CCC: "880", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Barbados", ISO: "BB", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Belarus", ISO: "BY", CCC: "375", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Belgium", ISO: "BE", CCC: "32", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Belize", ISO: "BZ", CCC: "501", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Benin", ISO: "BJ", CCC: "229", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Bermuda", ISO: "BM", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Bhutan", ISO: "BT", CCC: "975", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Bolivia", ISO: "BO", CCC: "591", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Bosnia and Herzegovina", ISO: "BA", CCC: "387", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Botswana", ISO: "BW", CCC: "267", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Brazil", ISO: "BR", CCC: "55", NationalNumberLength: 11, InternationalCallPrefix: "00"},
	{Country: "Brunei Darussalam", ISO: "BN", CCC: "673", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Bulgaria", ISO: "BG", CCC: "359", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Burkina Faso", ISO: "BF", CCC: "226", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Burundi", ISO: "BI", CCC: "257", NationalNumberLength: 8, InternationalCallPrefix: "011"},
	{Country: "Cambodia", ISO: "KH", CCC: "855", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Cameroon", ISO: "CM", CCC: "237", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Canada", ISO: "CA", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Cape Verde", ISO: "CV", CCC: "238", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Cayman Islands", ISO: "KY", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Central African Republic", ISO: "CF", CCC: "236", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Chad", ISO: "TD", CCC: "235", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Chile", ISO: "CL", CCC: "56", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "China", ISO: "CN", CCC: "86", NationalNumberLength: 11, InternationalCallPrefix: "00"},
	{Country: "Colombia", ISO: "CO", CCC: "57", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Comoros", ISO: "KM", CCC: "269", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Congo", ISO: "CG", CCC: "242", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Congo Democratic Republic", ISO: "CD", CCC: "243", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Cook Islands", ISO: "CK", CCC: "682", NationalNumberLength: 5, InternationalCallPrefix: "00"},
	{Country: "Costa Rica", ISO: "CR", CCC: "506", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Cote d'Ivoire", ISO: "AD", CCC: "225", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Croatia", ISO: "HR", CCC: "385", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Cuba", ISO: "CU", CCC: "53", NationalNumberLength: 8, InternationalCallPrefix: "119"},
	{Country: "Cyprus", ISO: "CY", CCC: "357", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Czech Republic", ISO: "CZ", CCC: "420", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Denmark", ISO: "DK", CCC: "45", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Djibouti", ISO: "DJ", CCC: "253", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Dominica", ISO: "DM", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Dominican Republic", ISO: "DO", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Ecuador", ISO: "EC", CCC: "593", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Egypt", ISO: "EG", CCC: "20", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "El Salvador", ISO: "SV", CCC: "503", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Equatorial Guinea", ISO: "GQ", CCC: "240", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Eritrea", ISO: "ER", CCC: "291", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Estonia", ISO: "EE", CCC: "372", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Ethiopia", ISO: "ET", CCC: "251", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Falkland Islands", ISO: "FK", CCC: "500", NationalNumberLength: 5, InternationalCallPrefix: "00"},
	{Country: "Faroe Islands", ISO: "FO", CCC: "298", NationalNumberLength: 6, InternationalCallPrefix: "00"},
	{Country: "Fiji", ISO: "FJ", CCC: "679", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Finland", ISO: "FI", CCC: "358", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "France", ISO: "FR", CCC: "33", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "French Guiana", ISO: "GF", CCC: "594", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "French Polynesia", ISO: "PF", CCC: "689", NationalNumberLength: 6, InternationalCallPrefix: "00"},
	{Country: "Gabon", ISO: "GA", CCC: "241", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Gambia", ISO: "GM", CCC: "220", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Georgia", ISO: "GE", CCC: "995", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Germany", ISO: "DE", CCC: "49", NationalNumberLength: 12, InternationalCallPrefix: "00"},
	{Country: "Ghana", ISO: "GH", CCC: "233", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Gibraltar", ISO: "GI", CCC: "350", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Greece", ISO: "GR", CCC: "30", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Greenland", ISO: "GL", CCC: "299", NationalNumberLength: 6, InternationalCallPrefix: "00"},
	{Country: "Grenada", ISO: "GD", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Guadeloupe", ISO: "GP", CCC: "590", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Guam", ISO: "GU", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Guatemala", ISO: "GT", CCC: "502", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Guinea", ISO: "GN", CCC: "224", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Guinea-Bissau", ISO: "GW", CCC: "245", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Guyana", ISO: "GY", CCC: "592", NationalNumberLength: 7, InternationalCallPrefix: "001"},
	{Country: "Haiti", ISO: "HT", CCC: "509", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Honduras", ISO: "HN", CCC: "504", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Hong Kong", ISO: "HK", CCC: "852", NationalNumberLength: 8, InternationalCallPrefix: "001"},
	{Country: "Hungary", ISO: "HU", CCC: "36", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Iceland", ISO: "IS", CCC: "354", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "India", ISO: "IN", CCC: "91", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Indonesia", ISO: "ID", CCC: "62", NationalNumberLength: 12, InternationalCallPrefix: "001"},
	{Country: "Iran", ISO: "IR", CCC: "98", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Iraq", ISO: "IQ", CCC: "964", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Ireland", ISO: "IE", CCC: "353", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Israel", ISO: "IL", CCC: "972", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Italy", ISO: "IT", CCC: "39", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Jamaica", ISO: "JM", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Japan", ISO: "JP", CCC: "81", NationalNumberLength: 10, InternationalCallPrefix: "010"},
	{Country: "Jordan", ISO: "JO", CCC: "962", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Kenya", ISO: "KE", CCC: "254", NationalNumberLength: 9, InternationalCallPrefix: "000"},
	{Country: "Kiribati", ISO: "KI", CCC: "686", NationalNumberLength: 5, InternationalCallPrefix: "00"},
	{Country: "Korea, North", ISO: "KP", CCC: "850", NationalNumberLength: 12, InternationalCallPrefix: "99"},
	{Country: "Korea, South", ISO: "KR", CCC: "82", NationalNumberLength: 12, InternationalCallPrefix: "001"},
	{Country: "Kuwait", ISO: "KW", CCC: "965", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Kyrgyzstan", ISO: "KG", CCC: "996", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Laos", ISO: "LA", CCC: "856", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Latvia", ISO: "LV", CCC: "371", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Lebanon", ISO: "LB", CCC: "961", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Lesotho", ISO: "LS", CCC: "266", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Liberia", ISO: "LR", CCC: "231", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Libya", ISO: "LY", CCC: "218", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Liechtenstein", ISO: "LI", CCC: "423", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Lithuania", ISO: "LT", CCC: "370", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Luxembourg", ISO: "LU", CCC: "352", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Macau", ISO: "MO", CCC: "853", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Macedonia", ISO: "MK", CCC: "389", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Madagascar", ISO: "MG", CCC: "261", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Malawi", ISO: "MW", CCC: "265", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Malaysia", ISO: "MY", CCC: "60", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Maldives", ISO: "MV", CCC: "960", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Mali", ISO: "ML", CCC: "223", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Malta", ISO: "MT", CCC: "356", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Marshall Islands", ISO: "MH", CCC: "692", NationalNumberLength: 7, InternationalCallPrefix: "011"},
	{Country: "Martinique", ISO: "MQ", CCC: "596", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Mauritania", ISO: "MR", CCC: "222", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Mauritius", ISO: "MU", CCC: "230", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Mexico", ISO: "MX", CCC: "52", NationalNumberLength: 11, InternationalCallPrefix: "00"},
	{Country: "Micronesia", ISO: "FM", CCC: "691", NationalNumberLength: 7, InternationalCallPrefix: "011"},
	{Country: "Moldova", ISO: "MD", CCC: "373", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Monaco", ISO: "MC", CCC: "377", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Mongolia", ISO: "MN", CCC: "976", NationalNumberLength: 8, InternationalCallPrefix: "001"},
	{Country: "Montenegro", ISO: "ME", CCC: "382", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Montserrat", ISO: "MS", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Morocco", ISO: "MA", CCC: "212", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Mozambique", ISO: "MZ", CCC: "258", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Myanmar", ISO: "MM", CCC: "95", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Namibia", ISO: "NA", CCC: "264", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Nauru", ISO: "NR", CCC: "674", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Nepal", ISO: "NP", CCC: "977", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Netherlands", ISO: "NL", CCC: "31", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "New Caledonia", ISO: "NC", CCC: "687", NationalNumberLength: 6, InternationalCallPrefix: "00"},
	{Country: "New Zealand", ISO: "NZ", CCC: "64", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Nicaragua", ISO: "NI", CCC: "505", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Niger", ISO: "NE", CCC: "227", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Nigeria", ISO: "NG", CCC: "234", NationalNumberLength: 10, InternationalCallPrefix: "009"},
	{Country: "Niue", ISO: "NU", CCC: "683", NationalNumberLength: 4, InternationalCallPrefix: "00"},
	{Country: "Norfolk Island", ISO: "NF", CCC: "672", NationalNumberLength: 5, InternationalCallPrefix: "00"},
	{Country: "Northern Mariana Islands", ISO: "MP", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Norway", ISO: "NO", CCC: "47", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Oman", ISO: "OM", CCC: "968", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Pakistan", ISO: "PK", CCC: "92", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Palau", ISO: "PW", CCC: "680", NationalNumberLength: 7, InternationalCallPrefix: "011"},
	{Country: "Palestine", ISO: "PS", CCC: "970", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Panama", ISO: "PA", CCC: "507", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Papua New Guinea", ISO: "PG", CCC: "675", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Paraguay", ISO: "PY", CCC: "595", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Peru", ISO: "PE", CCC: "51", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Philippines", ISO: "PH", CCC: "63", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Poland", ISO: "PL", CCC: "48", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Portugal", ISO: "PT", CCC: "351", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Puerto Rico", ISO: "PR", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Qatar", ISO: "QA", CCC: "974", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Reunion Island", ISO: "RE", CCC: "262", NationalNumberLength: 9, InternationalCallPrefix: "011"},
	{Country: "Romania", ISO: "RO", CCC: "40", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Russian Federation", ISO: "RU", CCC: "7", NationalNumberLength: 10, InternationalCallPrefix: "8"},
	{Country: "Rwanda", ISO: "RW", CCC: "250", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Saint Helena", ISO: "SH", CCC: "290", NationalNumberLength: 4, InternationalCallPrefix: "00"},
	{Country: "Saint Kitts and Nevis", ISO: "KN", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Saint Lucia", ISO: "LC", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Saint Pierre and Miquelon", ISO: "PM", CCC: "508", NationalNumberLength: 6, InternationalCallPrefix: "00"},
	{Country: "Saint Vincent and the Grenadines", ISO: "VC", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Samoa", ISO: "WS", CCC: "685", NationalNumberLength: 7, InternationalCallPrefix: "0"},
	{Country: "San Marino", ISO: "SM", CCC: "378", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Sao Tome and Principe", ISO: "ST", CCC: "239", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Saudi Arabia", ISO: "SA", CCC: "966", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Senegal", ISO: "SN", CCC: "221", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Serbia", ISO: "RS", CCC: "381", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Seychelles", ISO: "SC", CCC: "248", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Sierra Leone", ISO: "SL", CCC: "232", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Singapore", ISO: "SG", CCC: "65", NationalNumberLength: 8, InternationalCallPrefix: "001"},
	{Country: "Slovakia", ISO: "SK", CCC: "421", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Slovenia", ISO: "SI", CCC: "386", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Solomon Islands", ISO: "SB", CCC: "677", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Somalia", ISO: "SO", CCC: "252", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "South Africa", ISO: "ZA", CCC: "27", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Spain", ISO: "ES", CCC: "34", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Sri Lanka", ISO: "LK", CCC: "94", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Sudan", ISO: "SD", CCC: "249", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Suriname", ISO: "SR", CCC: "597", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Swaziland", ISO: "SZ", CCC: "268", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Sweden", ISO: "SE", CCC: "46", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Switzerland", ISO: "XK", CCC: "41", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Syria", ISO: "SY", CCC: "963", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Taiwan", ISO: "TW", CCC: "886", NationalNumberLength: 9, InternationalCallPrefix: "810"},
	{Country: "Tajikistan", ISO: "TJ", CCC: "992", NationalNumberLength: 9, InternationalCallPrefix: "002"},
	{Country: "Tanzania", ISO: "TZ", CCC: "255", NationalNumberLength: 9, InternationalCallPrefix: "000"},
	{Country: "Thailand", ISO: "TH", CCC: "66", NationalNumberLength: 9, InternationalCallPrefix: "001"},
	{Country: "Togo", ISO: "TG", CCC: "228", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Tokelau", ISO: "TK", CCC: "690", NationalNumberLength: 4, InternationalCallPrefix: "00"},
	{Country: "Tonga", ISO: "TO", CCC: "676", NationalNumberLength: 5, InternationalCallPrefix: "00"},
	{Country: "Trinidad and Tobago", ISO: "TT", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Tunisia", ISO: "TN", CCC: "216", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Turkey", ISO: "TR", CCC: "90", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Turkmenistan", ISO: "TM", CCC: "993", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Turks and Caicos Islands", ISO: "TC", CCC: "1", NationalNumberLength: 7, InternationalCallPrefix: "0"},
	{Country: "Tuvalu", ISO: "TV", CCC: "688", NationalNumberLength: 5, InternationalCallPrefix: "00"},
	{Country: "Uganda", ISO: "UG", CCC: "256", NationalNumberLength: 9, InternationalCallPrefix: "000"},
	{Country: "Ukraine", ISO: "UA", CCC: "380", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "United Arab Emirates", ISO: "AE", CCC: "971", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "United Kingdom", ISO: "GB", CCC: "44", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "United States", ISO: "US", CCC: "1", NationalNumberLength: 10, InternationalCallPrefix: "011"},
	{Country: "Uruguay", ISO: "UY", CCC: "598", NationalNumberLength: 8, InternationalCallPrefix: "00"},
	{Country: "Uzbekistan", ISO: "UZ", CCC: "998", NationalNumberLength: 9, InternationalCallPrefix: "8"},
	{Country: "Vanuatu", ISO: "VU", CCC: "678", NationalNumberLength: 7, InternationalCallPrefix: "00"},
	{Country: "Venezuela", ISO: "VE", CCC: "58", NationalNumberLength: 10, InternationalCallPrefix: "00"},
	{Country: "Vietnam", ISO: "VN", CCC: "84", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Wallis and Futuna", ISO: "WF", CCC: "681", NationalNumberLength: 5, InternationalCallPrefix: "00"},
	{Country: "Yemen", ISO: "YE", CCC: "967", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Zambia", ISO: "ZM", CCC: "260", NationalNumberLength: 9, InternationalCallPrefix: "00"},
	{Country: "Zimbabwe", ISO: "ZW", CCC: "263", NationalNumberLength: 9, InternationalCallPrefix: "00"},
}

// MostCommon is the generic plan used when no country can be determined.
var MostCommon = DialPlan{Country: "generic", NationalNumberLength: 10, InternationalCallPrefix: "00"}
