package classifier

import "strings"

// RegimeRule maps a family of withholding regimes, recognized by keywords, to
// the code, article and description expected by the import template.
type RegimeRule struct {
	ID          string
	Code        string
	Article     string
	Description string
	Keywords    []string

	upperKeywords []string
	keywordWords  []int
}

// The order of this table is significant: direct-code lookups and keyword
// score ties both resolve to the earliest rule.
var regimeRules = []RegimeRule{
	{ID: "RG_140_TARJ", Code: "140", Article: "", Description: "RG. 140 - TARJ DE CREDITO", Keywords: []string{"140", "TARJ DE CREDITO", "LIQUIDACION TARJETAS"}},
	{ID: "R155_10_IB_CABA", Code: "155", Article: "", Description: "R155/10 Perc.IB CABA", Keywords: []string{"155", "R155/10", "IB CABA", "INGRESOS BRUTOS CABA"}},
	{ID: "RETENCION_SUSS_LIMP_INM", Code: "1556", Article: "", Description: "Retención SUSS (Limp Inm)", Keywords: []string{"1556", "SUSS", "LIMPIEZA INMUEBLES", "LIMPIEZA"}},
	{ID: "R1574_2000_RET_IB_CABA", Code: "1574", Article: "", Description: "R 1574/2000 Ret IB CABA", Keywords: []string{"1574", "R 1574/2000", "IB CABA", "RETENCION INGRESOS BRUTOS CABA"}},
	{ID: "RG_1575_13A_RET_IVA_FC_M", Code: "1575", Article: "13A", Description: "RG 1575 Ret. IVA FC M", Keywords: []string{"1575", "13A", "RET. IVA FC M", "RG 1575", "FACTURA M"}},
	{ID: "RG_1575_13B_RET_GCIAS_FC_M", Code: "1575", Article: "13B", Description: "RG 1575 Ret. Gcias FC M", Keywords: []string{"1575", "13B", "RET. GCIAS FC M", "GANANCIAS FACTURA M"}},
	{ID: "RETENCION_SUSS_I_S", Code: "1769", Article: "", Description: "Retención SUSS (I y S)", Keywords: []string{"1769", "SUSS", "SEGURIDAD SOCIAL", "INDEMNIZACION"}},
	{ID: "RETENCION_SUSS", Code: "1784", Article: "", Description: "Retención SUSS", Keywords: []string{"1784", "SUSS", "OBRAS SOCIALES"}},
	{ID: "RETENCION_IVA_RG_18_A", Code: "18", Article: "1", Description: "RETENCION IVA RG 18 (A)", Keywords: []string{"18", "1", "RETENCION IVA RG 18 A", "IVA A"}},
	{ID: "RETENCION_IVA_RG_18_B", Code: "18", Article: "2", Description: "RETENCION IVA RG 18 (B)", Keywords: []string{"18", "2", "RETENCION IVA RG 18 B", "IVA B"}},
	{ID: "RETENCION_IVA_RG_18_C", Code: "18", Article: "3", Description: "RETENCION IVA RG 18 (C)", Keywords: []string{"18", "3", "RETENCION IVA RG 18 C", "IVA C"}},
	{ID: "RET_IIBB_STA_CRUZ_DIRECTO", Code: "192D", Article: "", Description: "RET IIBB STA CRUZ DIRECTO", Keywords: []string{"192D", "IIBB STA CRUZ", "INGRESOS BRUTOS SANTA CRUZ DIRECTO"}},
	{ID: "RG_212_SUJ_NO_CATEGOR", Code: "212", Article: "", Description: "RG. 212 - SUJ. NO CATEGOR", Keywords: []string{"212", "NO CATEGORIZADO", "PERCEPCION NO CATEGORIZADO"}},
	{ID: "PERCEP_IVA_RG_2408", Code: "2408", Article: "", Description: "PERCEP IVA RG 2408", Keywords: []string{"2408", "PERCEPCION IVA RG 2408"}},
	{ID: "PERCEP_IVA_RG_2408_10_5", Code: "2408", Article: "2", Description: "PERCEP IVA RG 2408 10,5%", Keywords: []string{"2408", "2", "PERCEPCION IVA RG 2408 10,5", "IVA 10.5"}},
	{ID: "RG_2616_GAN_SERVICIOS", Code: "2616", Article: "1", Description: "RG 2616 GAN - Servicios", Keywords: []string{"2616", "1", "GANANCIAS SERVICIOS", "RETENCION GANANCIAS SERVICIOS"}},
	{ID: "RG_2616_GAN_BS_MUEBLES", Code: "2616", Article: "2", Description: "RG 2616 GAN - Bs Muebles", Keywords: []string{"2616", "2", "GANANCIAS BIENES MUEBLES", "RETENCION GANANCIAS BIENES"}},
	{ID: "RG_2616_IVA_SERVICIOS", Code: "2616", Article: "4", Description: "RG 2616 IVA - Servicios", Keywords: []string{"2616", "4", "IVA SERVICIOS", "RETENCION IVA SERVICIOS"}},
	{ID: "RG_2616_IVA_BS_MUEBLES", Code: "2616", Article: "5", Description: "RG 2616 IVA - Bs Muebles", Keywords: []string{"2616", "5", "IVA BIENES MUEBLES", "RETENCION IVA BIENES"}},
	{ID: "RET_SUSS_INGENIERIA", Code: "2682", Article: "10", Description: "RET SUSS INGENIERIA", Keywords: []string{"2682", "10", "SUSS INGENIERIA", "RETENCION SUSS"}},
	{ID: "RG_2784_PROF_LIBERALES_I", Code: "2784", Article: "1", Description: "RG.2784 PROF LIBERALES I.", Keywords: []string{"2784", "1", "PROF LIBERALES INSC.", "RETENCION PROFESIONALES INSC"}},
	{ID: "RG_2784_PROF_LIBERALES_NI", Code: "2784", Article: "2", Description: "RG.2784 PROF LIBERALES NI", Keywords: []string{"2784", "2", "PROF LIBERALES NO INSC.", "RETENCION PROFESIONALES NO INSC"}},
	{ID: "RG_2784_LOCAC_OBRA_SERV", Code: "2784", Article: "3", Description: "RG.2784 LOCAC. OBRA/SERV.", Keywords: []string{"2784", "3", "LOCACION OBRAS SERVICIOS", "RETENCION LOCACION OBRAS"}},
	{ID: "RG_2784_LOC_OBRA_SERV_NI", Code: "2784", Article: "4", Description: "RG.2784 LOC. OBRA/SERV.NI", Keywords: []string{"2784", "4", "LOCACION OBRAS SERVICIOS NO INSCRIPTO"}},
	{ID: "RG_2784_HONORAR_DIREC_SOC", Code: "2784", Article: "5", Description: "RG.2784 HONORAR DIREC SOC", Keywords: []string{"2784", "5", "HONORARIOS DIRECTORES SOCIEDADES", "RETENCION HONORARIOS"}},
	{ID: "RG_2784_ALQUILERES", Code: "2784", Article: "6", Description: "RG.2784 ALQUILERES", Keywords: []string{"2784", "6", "ALQUILERES", "RETENCION ALQUILERES"}},
	{ID: "RG_2784_INTERESES", Code: "2784", Article: "7", Description: "RG.2784 - INTERESES", Keywords: []string{"2784", "7", "INTERESES", "RETENCION INTERESES"}},
	{ID: "RETEN_GANANCIAS_2793_OPC", Code: "2793", Article: "1", Description: "RETEN. GANANCIAS 2793 OPC", Keywords: []string{"2793", "1", "GANANCIAS OPC", "RETENCION GANANCIAS"}},
	{ID: "RET_IVA_RG_2854_BIENES", Code: "2854", Article: "8A", Description: "RET IVA RG 2854 (Bienes)", Keywords: []string{"2854", "8A", "RET IVA 2854 BIENES", "IVA BIENES"}},
	{ID: "RET_IVA_RG_2854_SERVICIOS", Code: "2854", Article: "8B", Description: "RET IVA RG 2854 (Servic.)", Keywords: []string{"2854", "8B", "RET IVA 2854 SERVICIOS", "IVA SERVICIOS"}},
	{ID: "RET_IVA_RG_2854_10_5", Code: "2854", Article: "8C", Description: "RET IVA RG 2854 (10,5%)", Keywords: []string{"2854", "8C", "RET IVA 2854 10,5%", "IVA 10.5"}},
	{ID: "RET_IVA_RG_2854_ART9", Code: "2854", Article: "9", Description: "RET IVA RG 2854 art.9)", Keywords: []string{"2854", "9", "RET IVA 2854 ART 9"}},
	{ID: "RET_IVA_RG_2854_ART9_BS", Code: "2854", Article: "9B", Description: "RET IVA RG 2854 art.9) Bs", Keywords: []string{"2854", "9B", "RET IVA 2854 ART 9 BIENES"}},
	{ID: "RET_IVA_RG_2854_ART9_SS", Code: "2854", Article: "9C", Description: "RET IVA RG 2854 art.9) Ss", Keywords: []string{"2854", "9C", "RET IVA 2854 ART 9 SERVICIOS"}},
	{ID: "RETENCION_IVA_RG_3125_A", Code: "3125", Article: "1", Description: "RETENCION IVA RG.3125 (A)", Keywords: []string{"3125", "1", "RETENCION IVA 3125 A", "IVA 3125 A"}},
	{ID: "RETENCION_IVA_RG_3125_B", Code: "3125", Article: "2", Description: "RETENCION IVA RG.3125 (B)", Keywords: []string{"3125", "2", "RETENCION IVA 3125 B", "IVA 3125 B"}},
	{ID: "RETENCION_IVA_RG_3125_C", Code: "3125", Article: "3", Description: "RETENCION IVA RG.3125 (C)", Keywords: []string{"3125", "3", "RETENCION IVA 3125 C", "IVA 3125 C"}},
	{ID: "RG_3164_RET_IVA_NO_INSC", Code: "3164", Article: "NI", Description: "RG. 3164 RET IVA No Insc.", Keywords: []string{"3164", "NI", "IVA NO INSCRIPTO"}},
	{ID: "RG_3164_RET_IVA_INSC", Code: "3164", Article: "RI", Description: "RG. 3164 RET IVA Insc.", Keywords: []string{"3164", "RI", "IVA INSCRIPTO"}},
	{ID: "RETENCION_IVA_RG_3273", Code: "3273", Article: "", Description: "RETENCION IVA RG.3273", Keywords: []string{"3273", "RETENCION IVA RG 3273", "LIQUIDACION TARJETAS"}},
	{ID: "RETENC_GANANCIAS_RG_3311", Code: "3311", Article: "", Description: "RETENC. GANANCIAS RG.3311", Keywords: []string{"3311", "RETENCION GANANCIAS RG 3311", "LIQUIDACION TARJETAS", "GANANCIAS"}},
	{ID: "PERCEPCION_IVA_RG_3337_GEN", Code: "3337", Article: "", Description: "PERCEPCION IVA RG.3337", Keywords: []string{"3337", "PERCEPCION IVA RG 3337", "IVA GENERAL"}},
	{ID: "PERCEP_RG_3337_ART1", Code: "3337", Article: "1", Description: "PERCEP RG 3337 ART 1", Keywords: []string{"3337", "1", "PERCEP RG 3337 ART 1", "PERCEPCION IVA RG 3337 ART 1"}},
	{ID: "PERCEP_IVA_RG_3337_21", Code: "3337", Article: "21", Description: "PERCEPCION IVA RG.3337", Keywords: []string{"3337", "21", "PERCEPCION IVA RG 3337", "IVA 21%"}},
	{ID: "PERCEP_IVA_10_5", Code: "3337", Article: "22", Description: "PERCEP IVA (tasa 10.5%)", Keywords: []string{"3337", "22", "PERCEP IVA 10.5%", "IVA 10.5"}},
	{ID: "PERCEPCION_IVA_RG_3431_GEN", Code: "3431", Article: "", Description: "PERCEPCION IVA RG. 3431", Keywords: []string{"3431", "PERCEPCION IVA RG 3431"}},
	{ID: "PERC_IMP_CARNES_BOBINOS_A", Code: "3431", Article: "A", Description: "Perc. imp. carnes bobinos", Keywords: []string{"3431", "A", "CARNES BOBINOS", "IVA CARNES A"}},
	{ID: "PERC_IMP_MUEBLES_NO_BU_B1", Code: "3431", Article: "B1", Description: "Perc.imp.Muebles No B.Uso", Keywords: []string{"3431", "B1", "MUEBLES NO BUEN USO"}},
	{ID: "PERC_IMP_MUEBLES_BU_B2", Code: "3431", Article: "B2", Description: "Perc.imp.Muebles B.Uso", Keywords: []string{"3431", "B2", "MUEBLES BUEN USO"}},
	{ID: "PERC_IMP_C_MBLES_FTAS_LEG_B3", Code: "3431", Article: "B3", Description: "Perc.imp.c.Mbles,ftas,leg", Keywords: []string{"3431", "B3", "COMBUSTIBLES FERTILIZANTES LEGUMBRES"}},
	{ID: "PERCEPCION_IMPORTAC_3543_GEN", Code: "3543", Article: "", Description: "PERCEPCION IMPORTAC 3543", Keywords: []string{"3543", "PERCEPCION IMPORTACION"}},
	{ID: "PERC_IMP_BNES_CON_CVDI_1", Code: "3543", Article: "1", Description: "Perc.Imp.bienes con CVDI", Keywords: []string{"3543", "1", "BIENES CON CVDI"}},
	{ID: "PERC_IMP_BNES_IMP_C_CVDI_2", Code: "3543", Article: "2", Description: "Perc.Imp.bnes imp. c/CVDI", Keywords: []string{"3543", "2", "BIENES IMPORTADOS CON CVDI"}},
	{ID: "PERC_IMP_BNES_IMP_S_CVDI_3", Code: "3543", Article: "3", Description: "Perc.Imp.bnes imp. s/CVDI", Keywords: []string{"3543", "3", "BIENES IMPORTADOS SIN CVDI"}},
	{ID: "PERC_IMP_BIENES_S_CVDI_4", Code: "3543", Article: "4", Description: "Perc. Imp. bienes s/CVDI", Keywords: []string{"3543", "4", "BIENES SIN CVDI"}},
	{ID: "PERC_IMP_BIENES_PARA_VTA_4_1", Code: "3543", Article: "4.1", Description: "Perc.Imp. bienes para vta", Keywords: []string{"3543", "4.1", "BIENES PARA VENTA"}},
	{ID: "PERC_IMP_BNES_P_USO_IMP_4_2", Code: "3543", Article: "4.2", Description: "Perc.Imp.bnes p/uso impor", Keywords: []string{"3543", "4.2", "BIENES USO IMPORTADO"}},
	{ID: "PERC_IMP_DEF_BIENES_5", Code: "3543", Article: "5", Description: "Perc. Imp. def. bienes", Keywords: []string{"3543", "5", "BIENES DEFINITIVOS"}},
	{ID: "RET_IVA_21_INSCRIP_RFPEM_24A", Code: "3692", Article: "24A", Description: "RET IVA 21% INSCRIP RFPEM", Keywords: []string{"3692", "24A", "RET IVA 21% INSCRIPTO"}},
	{ID: "RET_IVA_21_NO_INSC_RFPEM_24B", Code: "3692", Article: "24B", Description: "RET IVA 21% NO INSC RFPEM", Keywords: []string{"3692", "24B", "RET IVA 21% NO INSCRIPTO"}},
	{ID: "RET_IVA_10_5_INSCRIP_RFPEM_24C", Code: "3692", Article: "24C", Description: "RET IVA 10,5% INSCR RFPEM", Keywords: []string{"3692", "24C", "RET IVA 10.5% INSCRIPTO"}},
	{ID: "RET_IVA_10_5_NO_INSC_RFPEM_24D", Code: "3692", Article: "24D", Description: "RET IVA 10,5% NO IN RFPEM", Keywords: []string{"3692", "24D", "RET IVA 10.5% NO INSCRIPTO"}},
	{ID: "RET_IVA_27_INSCRIP_RFPEM_24E", Code: "3692", Article: "24E", Description: "RET IVA 27% INSCRIP RFPEM", Keywords: []string{"3692", "24E", "RET IVA 27% INSCRIPTO"}},
	{ID: "RET_IVA_27_NO_INSC_RFPEM_24F", Code: "3692", Article: "24F", Description: "RET IVA 27% NO INSC RFPEM", Keywords: []string{"3692", "24F", "RET IVA 27% NO INSCRIPTO"}},
	{ID: "RET_IG_RFPEM_REGALIAS_38A", Code: "3692", Article: "38A", Description: "RET IG RFPEM REGALIAS", Keywords: []string{"3692", "38A", "RETENCION REGALIAS"}},
	{ID: "RET_IG_NIR_BS_MUEBLES_38B1", Code: "3692", Article: "38B1", Description: "RET IG NIR - BS MUEBLES..", Keywords: []string{"3692", "38B1", "RETENCION IG NIR BIENES MUEBLES"}},
	{ID: "RET_IG_NIR_RESTO_OPERAC_38B2", Code: "3692", Article: "38B2", Description: "RET IG NIR - RESTO OPERAC", Keywords: []string{"3692", "38B2", "RETENCION IG NIR RESTO OPERACIONES"}},
	{ID: "REINTEGRO_IVA_DTO_1043_16", Code: "3971", Article: "", Description: "Reintegro IVA Dto.1043/16", Keywords: []string{"3971", "REINTEGRO IVA", "DTO 1043/16"}},
	{ID: "RETENCION_SUSS_SER_EVEN", Code: "3983", Article: "", Description: "Retención SUSS (Ser Even)", Keywords: []string{"3983", "SUSS SERVICIOS EVENTUALES", "RETENCION SUSS"}},
	{ID: "RG_830_INTERESES_A_INSC_A1", Code: "830", Article: "A1", Description: "RG.830 - INTERESES a Insc", Keywords: []string{"830", "A1", "INTERESES INSCRIPTO"}},
	{ID: "RG_830_INTERESES_NO_INSC_A2", Code: "830", Article: "A2", Description: "RG.830 INTERESES No Insc", Keywords: []string{"830", "A2", "INTERESES NO INSCRIPTO"}},
	{ID: "RG_830_ALQUILERES_INSCRIP_B1", Code: "830", Article: "B1", Description: "RG.830 ALQUILERES Inscrip", Keywords: []string{"830", "B1", "ALQUILERES INSCRIPTO"}},
	{ID: "RG_830_ALQUILERES_NO_INSC_B2", Code: "830", Article: "B2", Description: "RG.830 ALQUILERES No Insc", Keywords: []string{"830", "B2", "ALQUILERES NO INSCRIPTO"}},
	{ID: "ENAJEN_BIENES_MBLES_INSCRIP_F1", Code: "830", Article: "F1", Description: "ENAJEN.BIENES MBLES Inscr", Keywords: []string{"830", "F1", "ENAJENACION BIENES MUEBLES INSCRIPTO"}},
	{ID: "ENAJEN_BIENES_MBLES_NO_INSC_F2", Code: "830", Article: "F2", Description: "ENAJ.BIENES MBL No Inscr", Keywords: []string{"830", "F2", "ENAJENACION BIENES MUEBLES NO INSCRIPTO"}},
	{ID: "RG_830_LOC_OBR_SERV_INSCRIP_I1", Code: "830", Article: "I1", Description: "RG.830 LOC. OBR/SERV.Insc", Keywords: []string{"830", "I1", "LOCACION OBRAS SERVICIOS INSCRIPTO"}},
	{ID: "RG_830_LOC_OBR_SER_NO_INSC_I2", Code: "830", Article: "I2", Description: "RG.830 LOC.OBR/SER.No Ins", Keywords: []string{"830", "I2", "LOCACION OBRAS SERVICIOS NO INSCRIPTO"}},
	{ID: "RG_830_PROF_LIBER_INSCRIP_K1", Code: "830", Article: "K1", Description: "RG.830 PROF LIBERAL Insc.", Keywords: []string{"830", "K1", "PROFESIONES LIBERALES INSCRIPTO"}},
	{ID: "RG_830_PROF_LIBER_NO_INSC_K2", Code: "830", Article: "K2", Description: "RG.830 PROF LIBER No Insc", Keywords: []string{"830", "K2", "PROFESIONES LIBERALES NO INSCRIPTO"}},
	{ID: "RG_830_HONORAR_DIREC_SOC_K3", Code: "830", Article: "K3", Description: "RG.830 HONORAR DIREC SOC", Keywords: []string{"830", "K3", "HONORARIOS DIRECTORES SOCIEDADES"}},
	{ID: "RG_830_DESP_ADUANA_INSC_K4", Code: "830", Article: "K4", Description: "RG.830 DESP ADUANA Insc", Keywords: []string{"830", "K4", "DESPACHANTES ADUANEROS INSCRIPTO"}},
	{ID: "RG_830_DESP_ADUANA_NO_INSC_K5", Code: "830", Article: "K5", Description: "RG.830 DESP ADUAN No Insc", Keywords: []string{"830", "K5", "DESPACHANTES ADUANEROS NO INSCRIPTO"}},
	{ID: "RG_830_TRANS_CARGA_INSC_L1", Code: "830", Article: "L1", Description: "RG.830 TRANS CARGA Insc", Keywords: []string{"830", "L1", "TRANSPORTE CARGA INSCRIPTO"}},
	{ID: "RG_830_TRANS_CARG_NO_INSC_L2", Code: "830", Article: "L2", Description: "RG.830 TRANS CARG No Insc", Keywords: []string{"830", "L2", "TRANSPORTE CARGA NO INSCRIPTO"}},
	{ID: "RG_830_LIC_USO_SOFT_INSC_N1", Code: "830", Article: "N1", Description: "RG.830 LIC USO SOFT. Insc", Keywords: []string{"830", "N1", "LICENCIA USO SOFTWARE INSCRIPTO"}},
	{ID: "RG_830_LIC_USO_SOFT_NI_N2", Code: "830", Article: "N2", Description: "RG.830 LIC USO SOFT. NI", Keywords: []string{"830", "N2", "LICENCIA USO SOFTWARE NO INSCRIPTO"}},
	{ID: "RET_IIBB_PROV_STA_CRUZ_CM_CON1", Code: "CON1", Article: "", Description: "RET IIBB PROV STA CRUZ CM", Keywords: []string{"CON1", "IIBB STA CRUZ CM", "RETENCION IIBB SANTA CRUZ"}},
	{ID: "REGIMEN_PUENTE_CPUE8", Code: "CPUE", Article: "8", Description: "Régimen Puente", Keywords: []string{"CPUE", "8", "REGIMEN PUENTE"}},
	{ID: "PERCEP_DM_672_D672", Code: "D672", Article: "", Description: "PERCEP. DM 672", Keywords: []string{"D672", "PERCEPCION DM 672"}},
	{ID: "PERCEPCION_DN38_IB_DN38", Code: "DN38", Article: "", Description: "PERCEPCION DN38 (I.B.)", Keywords: []string{"DN38", "PERCEPCION DN38 IB", "IIBB DN38"}},
	{ID: "PERCEPCION_DN38_CM_DN38_1", Code: "DN38", Article: "1", Description: "PERCEPCION DN38 (C.M.)", Keywords: []string{"DN38", "1", "PERCEPCION DN38 CM"}},
	{ID: "RETENCION_DN43_BS_AS_DN43", Code: "DN43", Article: "", Description: "RETENCION DN43 (BS. AS.)", Keywords: []string{"DN43", "RETENCION DN43", "RETENCION INGRESOS BRUTOS BS AS"}},
	{ID: "DNB1_PERC_IB_BS_AS_RI", Code: "DNB1", Article: "", Description: "DNB1 Perc. IB Bs As R.I.", Keywords: []string{"DNB1", "PERC IB BS AS RI", "INGRESOS BRUTOS RI"}},
	{ID: "DNB1_PERC_IB_BS_AS_RM_2", Code: "DNB1", Article: "2", Description: "DNB1 Perc. IB Bs As R.M.", Keywords: []string{"DNB1", "2", "PERC IB BS AS RM", "INGRESOS BRUTOS RM"}},
	{ID: "RET_ING_BRUTOS_BS_AS_410R", Code: "DNB1", Article: "410R", Description: "Ret. Ing. Brutos Bs. As.", Keywords: []string{"DNB1", "410R", "RETENCION INGRESOS BRUTOS BS AS"}},
	{ID: "RETENCION_DNB6", Code: "DNB6", Article: "", Description: "RETENCION DNB6", Keywords: []string{"DNB6", "RETENCION DNB6", "LIQUIDACION TARJETAS"}},
	{ID: "PERCEPCION_IIBB_BS_AS_IBBA", Code: "IBBA", Article: "", Description: "Percepcion IIBB BS. AS.", Keywords: []string{"IBBA", "PERCEPCION IIBB BS AS", "INGRESOS BRUTOS BUENOS AIRES"}},
	{ID: "PERCEPCION_IIBB_CABA_IBCF", Code: "IBCF", Article: "", Description: "Percepcion IIBB CABA", Keywords: []string{"IBCF", "PERCEPCION IIBB CABA", "INGRESOS BRUTOS CABA"}},
	{ID: "PERCEPCION_IIBB_CHUBUT_IBCH", Code: "IBCH", Article: "", Description: "Percepcion IIBB CHUBUT", Keywords: []string{"IBCH", "PERCEPCION IIBB CHUBUT", "INGRESOS BRUTOS CHUBUT"}},
	{ID: "PERCEPCION_IIBB_STA_CRUZ_IBSC", Code: "IBSC", Article: "", Description: "Percepcion IIBB STA CRUZ", Keywords: []string{"IBSC", "PERCEPCION IIBB SANTA CRUZ", "INGRESOS BRUTOS SANTA CRUZ"}},
	{ID: "PERCEP_IMP_S_INTER_L25063_PINT", Code: "PINT", Article: "", Description: "PERCEP.IMP S/INTER L25063", Keywords: []string{"PINT", "INTERESES L25063", "LIQUIDACION TARJETAS"}},
	{ID: "PERCEPC_GANANC_TARJ_CRED_PTC", Code: "PTC", Article: "", Description: "PERCEPC GANANC. TARJ.CRED", Keywords: []string{"PTC", "PERCEPCION GANANCIAS TARJETA CREDITO", "LIQUIDACION TARJETAS", "GANANCIAS TARJETA"}},
	{ID: "PUENTE_PUEN8", Code: "PUEN", Article: "8", Description: "PUENTE", Keywords: []string{"PUEN", "8", "PUENTE"}},
	{ID: "RET_GAN_PERMISO_EMBARQU_RGPE", Code: "RGPE", Article: "", Description: "Ret. Gan. Permiso Embarqu", Keywords: []string{"RGPE", "RETENCION GANANCIAS PERMISO EMBARQUE"}},
	{ID: "493", Code: "3337", Article: "1", Description: "PERCEP RG 3337 ART 1", Keywords: []string{"493"}},
	{ID: "767", Code: "3337", Article: "1", Description: "PERCEP RG 3337 ART 1", Keywords: []string{"767"}},
}

var (
	genericVATRule  = RegimeRule{ID: "GENERIC_IVA", Code: "3337", Article: "1", Description: "PERCEP RG 3337 ART 1"}
	genericIIBBRule = RegimeRule{ID: "GENERIC_IIBB", Code: "IIBB", Article: "", Description: "Percepción IIBB Genérica"}
	genericGANRule  = RegimeRule{ID: "GENERIC_GAN", Code: "GAN", Article: "", Description: "RETEN. GANANCIAS GEN"}
	fallbackRule    = RegimeRule{ID: "OTROS", Code: UnmappedCode, Article: "", Description: "OTRAS PERCEPCIONES"}
)

// UnmappedCode is the code assigned when no rule recognizes a regime
const UnmappedCode = "OTROS"

var rulesByID map[string]*RegimeRule

func init() {
	rulesByID = make(map[string]*RegimeRule, len(regimeRules))
	for i := range regimeRules {
		rule := &regimeRules[i]
		rule.upperKeywords = make([]string, len(rule.Keywords))
		rule.keywordWords = make([]int, len(rule.Keywords))
		for j, kw := range rule.Keywords {
			rule.upperKeywords[j] = strings.ToUpper(kw)
			rule.keywordWords[j] = len(strings.Fields(kw))
		}
		rulesByID[rule.ID] = rule
	}
}

// Rules returns a copy of the regime table in priority order
func Rules() []RegimeRule {
	out := make([]RegimeRule, len(regimeRules))
	copy(out, regimeRules)
	return out
}

// RuleByID looks up a rule by its identifier
func RuleByID(id string) (RegimeRule, bool) {
	rule, ok := rulesByID[id]
	if !ok {
		return RegimeRule{}, false
	}
	return *rule, true
}

// hasKeyword reports whether the exact string is one of the rule's keywords
func (r *RegimeRule) hasKeyword(s string) bool {
	for _, kw := range r.Keywords {
		if kw == s {
			return true
		}
	}
	return false
}

// score adds 10 points per word plus one for every keyword found in text,
// which must already be upper-cased.
func (r *RegimeRule) score(text string) int {
	total := 0
	for i, kw := range r.upperKeywords {
		if strings.Contains(text, kw) {
			total += r.keywordWords[i]*10 + 1
		}
	}
	return total
}
